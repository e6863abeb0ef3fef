package executor

// Status classifies how a leg (or a whole round) ended.
type Status int

const (
	StatusSuccess Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Failure reasons. Transient-UI exhaustion and missing controls are
// reported as typed outcomes, never as errors.
const (
	ReasonControlNotFound        = "control-not-found"
	ReasonControlDisabledTimeout = "control-disabled-timeout"
	ReasonQuantityUnavailable    = "quantity-unavailable"
	ReasonLegDisabled            = "leg-disabled"
	ReasonCancelled              = "cancelled"
	ReasonNoActiveInstrument     = "no-active-instrument"
	ReasonPriceUnavailable       = "price-unavailable"
)

// Outcome is the typed result of one leg.
type Outcome struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

func Success() Outcome               { return Outcome{Status: StatusSuccess} }
func Skipped(reason string) Outcome  { return Outcome{Status: StatusSkipped, Reason: reason} }
func Failed(reason string) Outcome   { return Outcome{Status: StatusFailed, Reason: reason} }

// Ok reports whether the leg allows the round to continue: a skipped
// leg does, a failed one does not.
func (o Outcome) Ok() bool { return o.Status != StatusFailed }

func (o Outcome) String() string {
	if o.Reason == "" {
		return o.Status.String()
	}
	return o.Status.String() + "(" + o.Reason + ")"
}
