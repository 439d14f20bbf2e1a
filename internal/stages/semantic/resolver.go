// Package semantic resolves co-occurring time and date signals into a
// single constraint under a fixed precedence order, detecting conflicts
// instead of silently picking a winner.
package semantic

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"intent-resolver/internal/models"
	"intent-resolver/internal/stages/match"
)

// Result is the semantic reading of the extracted signals.
type Result struct {
	Time     *models.TimeConstraint
	Conflict bool
	Reason   string

	// Dates is the winning date bucket: absolute when any absolute
	// signal exists, else the relative signals tagged by class only.
	// Relative dates are never resolved to calendar values here.
	Dates     []models.DateSignal
	DateClass models.SignalClass
}

var (
	clockText    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	meridiemText = regexp.MustCompile(`^(\d{1,2}) (am|pm)$`)
	bareHourText = regexp.MustCompile(`^(\d{1,2})$`)
)

// ToHHMM normalizes exact time text to 24-hour HH:MM. Named times use
// the fixed table; a bare hour assumes :00; am/pm converts; values
// outside 0-23/0-59 are rejected as unparseable, never clamped.
func ToHHMM(raw string) (string, error) {
	raw = strings.TrimSpace(strings.ToLower(raw))

	if v, ok := match.NamedTimes[raw]; ok {
		return v, nil
	}

	if m := clockText.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		min, _ := strconv.Atoi(m[2])
		if h > 23 || min > 59 {
			return "", fmt.Errorf("time out of range: %q", raw)
		}
		return fmt.Sprintf("%02d:%02d", h, min), nil
	}

	if m := meridiemText.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h < 1 || h > 12 {
			return "", fmt.Errorf("meridiem hour out of range: %q", raw)
		}
		if m[2] == "pm" && h != 12 {
			h += 12
		}
		if m[2] == "am" && h == 12 {
			h = 0
		}
		return fmt.Sprintf("%02d:00", h), nil
	}

	if m := bareHourText.FindStringSubmatch(raw); m != nil {
		h, _ := strconv.Atoi(m[1])
		if h > 23 {
			return "", fmt.Errorf("hour out of range: %q", raw)
		}
		return fmt.Sprintf("%02d:00", h), nil
	}

	return "", fmt.Errorf("unparseable time: %q", raw)
}

// Resolve applies the precedence order exact > range > window > none.
// A lower-precedence signal never overrides a higher one. An exact
// point co-occurring with a range in the same clause, with no scope
// qualifier, is tagged CONFLICTING_SIGNALS and propagated as ambiguity.
func Resolve(mr *models.MatchResult, st models.StructureResult) Result {
	out := Result{}
	out.Dates, out.DateClass = pickDates(mr)

	points, rng := partitionTimes(mr.TimeSignals, st.TimeType == models.TimeTypeRange)

	qualified := st.TimeScope == models.TimeScopePerService && !st.NeedsClarification

	if len(points) > 0 && rng != nil && !qualified {
		out.Conflict = true
		out.Reason = models.ReasonConflictingSignals
		return out
	}
	if len(points) >= 2 && !qualified {
		out.Conflict = true
		out.Reason = models.ReasonConflictingSignals
		return out
	}

	if len(points) > 0 {
		if hhmm, err := ToHHMM(points[0].Raw); err == nil {
			out.Time = &models.TimeConstraint{Mode: models.TimeModeExact, Start: hhmm, End: hhmm}
		}
		return out
	}

	if rng != nil {
		start, err1 := ToHHMM(rng[0].Raw)
		end, err2 := ToHHMM(rng[1].Raw)
		if err1 == nil && err2 == nil {
			out.Time = &models.TimeConstraint{Mode: models.TimeModeWindow, Start: start, End: end}
		}
		return out
	}

	for _, sig := range mr.TimeSignals {
		if sig.Class == models.SignalWindow {
			out.Time = &models.TimeConstraint{Mode: models.TimeModeFuzzy, Label: sig.Raw}
			return out
		}
	}

	return out
}

// partitionTimes separates exact signals into a bounding pair when the
// structural pass read them as an explicit range, and standalone points
// otherwise.
func partitionTimes(signals []models.TimeSignal, isRange bool) (points []models.TimeSignal, rng []models.TimeSignal) {
	var exact []models.TimeSignal
	for _, sig := range signals {
		if sig.Class == models.SignalExact {
			exact = append(exact, sig)
		}
	}

	if isRange && len(exact) == 2 {
		lo, hi := exact[0], exact[1]
		if lo.Span.Start > hi.Span.Start {
			lo, hi = hi, lo
		}
		return nil, []models.TimeSignal{lo, hi}
	}

	return exact, nil
}

// pickDates applies date precedence: absolute > relative.
func pickDates(mr *models.MatchResult) ([]models.DateSignal, models.SignalClass) {
	if len(mr.AbsoluteDates) > 0 {
		return mr.AbsoluteDates, models.SignalAbsolute
	}
	if len(mr.RelativeDates) > 0 {
		return mr.RelativeDates, models.SignalRelative
	}
	return nil, ""
}
