// internal/models/structure.go
package models

// EntityGroup collects the entities belonging to one action anchor.
// Slices are position-ordered surface values; Items carries the
// per-product quantity and unit alignment.
type EntityGroup struct {
	Action     string      `json:"action"`
	Products   []string    `json:"products,omitempty"`
	Brands     []string    `json:"brands,omitempty"`
	Quantities []string    `json:"quantities,omitempty"`
	Units      []string    `json:"units,omitempty"`
	Variants   []string    `json:"variants,omitempty"`
	Services   []string    `json:"services,omitempty"`
	Items      []GroupItem `json:"items,omitempty"`
}

// GroupItem pairs one product with the quantity and unit governing it.
// The nearest preceding quantity/unit pair propagates to following
// products until a new pair appears.
type GroupItem struct {
	Product  string `json:"product"`
	Quantity string `json:"quantity,omitempty"`
	Unit     string `json:"unit,omitempty"`
}

// ServiceScope says whether one time anchor governs multiple services.
type ServiceScope string

const (
	ScopeShared   ServiceScope = "shared"
	ScopeSeparate ServiceScope = "separate"
)

// TimeScope says whether a time applies to all services or each one.
type TimeScope string

const (
	TimeScopeShared     TimeScope = "shared"
	TimeScopePerService TimeScope = "per_service"
)

// TimeType ranks the kind of time signal present, strongest first.
type TimeType string

const (
	TimeTypeExact  TimeType = "exact"
	TimeTypeRange  TimeType = "range"
	TimeTypeWindow TimeType = "window"
	TimeTypeNone   TimeType = "none"
)

// StructureResult is the rule-based structural reading of the utterance.
type StructureResult struct {
	BookingCount       int          `json:"booking_count"`
	ServiceScope       ServiceScope `json:"service_scope"`
	TimeScope          TimeScope    `json:"time_scope"`
	TimeType           TimeType     `json:"time_type"`
	HasDuration        bool         `json:"has_duration"`
	NeedsClarification bool         `json:"needs_clarification"`
	ClarifyReason      string       `json:"clarify_reason,omitempty"`
}
