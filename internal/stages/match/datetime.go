// internal/stages/match/datetime.go
package match

import (
	"regexp"
	"strconv"

	"intent-resolver/internal/models"
)

var monthNames = map[string]string{
	"jan": "jan", "january": "jan",
	"feb": "feb", "february": "feb",
	"mar": "mar", "march": "mar",
	"apr": "apr", "april": "apr",
	"may": "may",
	"jun": "jun", "june": "jun",
	"jul": "jul", "july": "jul",
	"aug": "aug", "august": "aug",
	"sep": "sep", "sept": "sep", "september": "sep",
	"oct": "oct", "october": "oct",
	"nov": "nov", "november": "nov",
	"dec": "dec", "december": "dec",
}

// NamedTimes are fixed clock values for named points in the day.
var NamedTimes = map[string]string{
	"noon":     "12:00",
	"midnight": "00:00",
	"midday":   "12:00",
}

// TimeWindows are named day periods resolved as fuzzy windows, never as
// clock points.
var TimeWindows = map[string]bool{
	"morning":   true,
	"afternoon": true,
	"evening":   true,
	"night":     true,
	"tonight":   true,
}

var relativeDays = map[string]bool{
	"today":    true,
	"tomorrow": true,
	"tonight":  true,
}

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var ordinalSuffixes = map[string]bool{"st": true, "nd": true, "rd": true, "th": true}

var timePrepositions = map[string]bool{
	"at": true, "by": true, "around": true, "before": true, "after": true,
}

var (
	clockPattern    = regexp.MustCompile(`^\d{1,2}:\d{2}$`)
	dayRangePattern = regexp.MustCompile(`^(\d{1,2})-(\d{1,2})$`)
)

// detection is the date/time reading of a token stream. Consumed marks
// token positions claimed by a date or time signal so the entity passes
// skip them.
type detection struct {
	Absolute []models.DateSignal
	Relative []models.DateSignal
	Times    []models.TimeSignal
	Consumed map[int]bool

	NeedsClarification bool
	TemplateKey        string
	Reason             string
}

// detectDateTime scans tokens for absolute anchors (month+day, optional
// year), explicit day ranges, ordinals, named times, windows, and bare
// hours after a time preposition. A range whose end day precedes its
// start day within the same stated month is flagged for clarification
// rather than inferred across a month boundary.
func detectDateTime(tokens []string) detection {
	d := detection{Consumed: make(map[int]bool)}

	i := 0
	for i < len(tokens) {
		if d.Consumed[i] {
			i++
			continue
		}
		tok := tokens[i]

		// month + day [+ year], possibly the head of a range
		if month, ok := monthNames[tok]; ok {
			if day, width, ok := parseDay(tokens, i+1); ok {
				end := i + 1 + width
				sig := models.DateSignal{
					Raw:   joinSpan(tokens, i, end),
					Class: models.SignalAbsolute,
					Month: month,
					Day:   day,
					Span:  models.Span{Start: i, End: end},
				}
				if y, ok := parseYear(tokens, end); ok {
					sig.Year = y
					sig.Span.End = end + 1
					sig.Raw = joinSpan(tokens, i, end+1)
					end++
				}
				i = d.claimRange(tokens, sig, end)
				continue
			}
			// bare month mention: relative-class anchor, no day
			d.Relative = append(d.Relative, models.DateSignal{
				Raw:   tok,
				Class: models.SignalRelative,
				Month: month,
				Span:  models.Span{Start: i, End: i + 1},
			})
			d.Consumed[i] = true
			i++
			continue
		}

		// compact day range "5-9"
		if m := dayRangePattern.FindStringSubmatch(tok); m != nil {
			startDay, _ := strconv.Atoi(m[1])
			endDay, _ := strconv.Atoi(m[2])
			if validDay(startDay) && validDay(endDay) {
				start := models.DateSignal{
					Raw:   m[1],
					Class: models.SignalAbsolute,
					Day:   startDay,
					Span:  models.Span{Start: i, End: i + 1},
				}
				d.Consumed[i] = true
				d.finishRange(start, models.DateSignal{
					Raw:   m[2],
					Class: models.SignalAbsolute,
					Day:   endDay,
					Span:  models.Span{Start: i, End: i + 1},
				})
				i++
				continue
			}
		}

		// ordinal day without month: "the 5 th"
		if day, width, ok := parseOrdinalDay(tokens, i); ok {
			end := i + width
			sig := models.DateSignal{
				Raw:   joinSpan(tokens, i, end),
				Class: models.SignalAbsolute,
				Day:   day,
				Span:  models.Span{Start: i, End: end},
			}
			i = d.claimRange(tokens, sig, end)
			continue
		}

		// clock time "17:30"
		if clockPattern.MatchString(tok) {
			d.claimTime(tokens, i, i+1, models.SignalExact)
			i++
			continue
		}

		// "<hour> am/pm"
		if isDayHour(tok) && i+1 < len(tokens) && (tokens[i+1] == "am" || tokens[i+1] == "pm") {
			d.claimTime(tokens, i, i+2, models.SignalExact)
			i += 2
			continue
		}

		// named times
		if _, ok := NamedTimes[tok]; ok {
			d.claimTime(tokens, i, i+1, models.SignalExact)
			i++
			continue
		}

		// named windows
		if TimeWindows[tok] {
			d.claimTime(tokens, i, i+1, models.SignalWindow)
			if relativeDays[tok] {
				d.Relative = append(d.Relative, models.DateSignal{
					Raw:   tok,
					Class: models.SignalRelative,
					Span:  models.Span{Start: i, End: i + 1},
				})
			}
			i++
			continue
		}

		// hour following a time preposition: "at 5", "at 5 pm"
		if timePrepositions[tok] && i+1 < len(tokens) && isDayHour(tokens[i+1]) && !d.Consumed[i+1] {
			if i+2 < len(tokens) && (tokens[i+2] == "am" || tokens[i+2] == "pm") {
				d.claimTime(tokens, i+1, i+3, models.SignalExact)
				i += 3
				continue
			}
			if !ordinalFollows(tokens, i+2) {
				d.claimTime(tokens, i+1, i+2, models.SignalExact)
				i += 2
				continue
			}
		}

		// relative day words and weekdays: tagged, never resolved here
		if relativeDays[tok] || weekdays[tok] {
			d.Relative = append(d.Relative, models.DateSignal{
				Raw:   tok,
				Class: models.SignalRelative,
				Span:  models.Span{Start: i, End: i + 1},
			})
			d.Consumed[i] = true
			i++
			continue
		}

		i++
	}

	return d
}

// claimRange consumes the start signal and, when a range connector
// follows, its end side too. Returns the next scan position.
func (d *detection) claimRange(tokens []string, start models.DateSignal, next int) int {
	for p := start.Span.Start; p < start.Span.End; p++ {
		d.Consumed[p] = true
	}

	if next < len(tokens) && isRangeConnector(tokens[next]) {
		if end, width, ok := parseRangeEnd(tokens, next+1); ok {
			d.Consumed[next] = true
			for p := next + 1; p < next+1+width; p++ {
				d.Consumed[p] = true
			}
			d.finishRange(start, end)
			return next + 1 + width
		}
	}

	// A single absolute date with no paired end is returned as-is;
	// downstream slot-filling decides whether an end date is required.
	d.Absolute = append(d.Absolute, start)
	return next
}

// finishRange applies the cross-month rule: an end day numerically
// before the start day within the same stated month yields only the
// start date plus a clarification flag. It is never auto-completed into
// the next month.
func (d *detection) finishRange(start, end models.DateSignal) {
	if end.Month == "" {
		end.Month = start.Month
	}
	if start.Day > 0 && end.Day > 0 && end.Day < start.Day && end.Month == start.Month {
		d.Absolute = append(d.Absolute, start)
		d.NeedsClarification = true
		d.TemplateKey = models.TemplateAskEndDate
		d.Reason = models.ReasonCrossMonthRange
		return
	}
	d.Absolute = append(d.Absolute, start, end)
}

func (d *detection) claimTime(tokens []string, start, end int, class models.SignalClass) {
	for p := start; p < end; p++ {
		d.Consumed[p] = true
	}
	d.Times = append(d.Times, models.TimeSignal{
		Raw:   joinSpan(tokens, start, end),
		Class: class,
		Span:  models.Span{Start: start, End: end},
	})
}

// parseRangeEnd accepts either month+day or a bare (ordinal) day.
func parseRangeEnd(tokens []string, i int) (models.DateSignal, int, bool) {
	if i >= len(tokens) {
		return models.DateSignal{}, 0, false
	}
	if month, ok := monthNames[tokens[i]]; ok {
		if day, width, ok := parseDay(tokens, i+1); ok {
			total := 1 + width
			return models.DateSignal{
				Raw:   joinSpan(tokens, i, i+total),
				Class: models.SignalAbsolute,
				Month: month,
				Day:   day,
				Span:  models.Span{Start: i, End: i + total},
			}, total, true
		}
		return models.DateSignal{}, 0, false
	}
	if day, width, ok := parseDay(tokens, i); ok {
		return models.DateSignal{
			Raw:   joinSpan(tokens, i, i+width),
			Class: models.SignalAbsolute,
			Day:   day,
			Span:  models.Span{Start: i, End: i + width},
		}, width, true
	}
	return models.DateSignal{}, 0, false
}

// parseDay reads a day numeral at i with an optional split ordinal
// suffix token. Returns the day and the token width consumed.
func parseDay(tokens []string, i int) (int, int, bool) {
	if i >= len(tokens) {
		return 0, 0, false
	}
	day, err := strconv.Atoi(tokens[i])
	if err != nil || !validDay(day) {
		return 0, 0, false
	}
	width := 1
	if i+1 < len(tokens) && ordinalSuffixes[tokens[i+1]] {
		width = 2
	}
	return day, width, true
}

// parseOrdinalDay requires the suffix: a bare numeral is not a date.
func parseOrdinalDay(tokens []string, i int) (int, int, bool) {
	day, width, ok := parseDay(tokens, i)
	if !ok || width != 2 {
		return 0, 0, false
	}
	return day, width, true
}

func parseYear(tokens []string, i int) (int, bool) {
	if i >= len(tokens) || len(tokens[i]) != 4 {
		return 0, false
	}
	y, err := strconv.Atoi(tokens[i])
	if err != nil || y < 1900 || y > 2200 {
		return 0, false
	}
	return y, true
}

func ordinalFollows(tokens []string, i int) bool {
	return i < len(tokens) && ordinalSuffixes[tokens[i]]
}

func isRangeConnector(tok string) bool {
	return tok == "to" || tok == "until" || tok == "through" || tok == "till"
}

func isDayHour(tok string) bool {
	n, err := strconv.Atoi(tok)
	return err == nil && n >= 0 && n <= 23
}

func validDay(d int) bool { return d >= 1 && d <= 31 }

func joinSpan(tokens []string, start, end int) string {
	out := ""
	for i := start; i < end && i < len(tokens); i++ {
		if out != "" {
			out += " "
		}
		out += tokens[i]
	}
	return out
}
