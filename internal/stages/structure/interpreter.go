// Package structure derives booking shape from the parameterized
// sentence and extracted entities: how many bookings, how services and
// times scope to each other, and whether the reading is ambiguous.
package structure

import (
	"intent-resolver/internal/models"
)

// Interpret is a pure function over the extraction output. It never
// consults external state and never errors: ambiguity is data.
func Interpret(result *models.MatchResult) models.StructureResult {
	tokens := tokensOf(result.Parameterized)

	var exactTimes []models.TimeSignal
	windows := 0
	for _, sig := range result.TimeSignals {
		switch sig.Class {
		case models.SignalExact:
			exactTimes = append(exactTimes, sig)
		case models.SignalWindow:
			windows++
		}
	}

	actionCount := 0
	serviceCount := 0
	hasDuration := false
	for _, e := range result.Entities {
		switch e.Type {
		case models.EntityAction:
			actionCount++
		case models.EntityService:
			serviceCount++
		case models.EntityDuration:
			hasDuration = true
		}
	}

	isRange := exactTimesFormRange(tokens, exactTimes)
	dateRange := len(result.AbsoluteDates) == 2

	// Time anchors: a range counts as one anchor, as does each window.
	timeAnchors := windows
	if isRange {
		timeAnchors++
	} else {
		timeAnchors += len(exactTimes)
	}

	out := models.StructureResult{
		BookingCount: bookingCount(tokens, actionCount, serviceCount, timeAnchors),
		ServiceScope: models.ScopeSeparate,
		TimeScope:    models.TimeScopeShared,
		TimeType:     timeType(exactTimes, isRange, dateRange, windows),
		HasDuration:  hasDuration,
	}

	if timeAnchors <= 1 && serviceCount >= 2 {
		out.ServiceScope = models.ScopeShared
	}
	if timeAnchors > 1 {
		out.TimeScope = models.TimeScopePerService
	}

	// Conflicting exact times in one clause with nothing scoping them
	// apart is ambiguity, surfaced rather than resolved.
	if len(exactTimes) >= 2 && !isRange && !hasScopeQualifier(tokens) {
		out.NeedsClarification = true
		out.ClarifyReason = models.ReasonConflictingSignals
		return out
	}

	// Multiple distinct anchors with no disambiguating keyword.
	if timeAnchors >= 2 && !hasScopeQualifier(tokens) {
		out.NeedsClarification = true
		out.ClarifyReason = models.ReasonMultipleAnchors
	}

	return out
}

// bookingCount counts independent action anchors. Connected service
// phrases under one shared anchor stay one booking; with no action at
// all the utterance still describes one booking.
func bookingCount(tokens []string, actionCount, serviceCount, timeAnchors int) int {
	if actionCount == 0 {
		return 1
	}
	if actionCount > 1 && timeAnchors <= 1 && connectedServices(tokens, serviceCount) {
		return 1
	}
	return actionCount
}

// timeType ranks present signals: exact > range > window > none.
func timeType(exact []models.TimeSignal, isRange, dateRange bool, windows int) models.TimeType {
	switch {
	case len(exact) == 1:
		return models.TimeTypeExact
	case isRange || dateRange:
		return models.TimeTypeRange
	case len(exact) > 0:
		return models.TimeTypeExact
	case windows > 0:
		return models.TimeTypeWindow
	default:
		return models.TimeTypeNone
	}
}
