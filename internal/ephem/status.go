package ephem

// Status classifies an engine result: clean, degraded with a warning
// message, or failed. Warn results carry usable data computed under a
// documented substitution (backend fallback, flag correction, polar house
// fallback); Err results do not.
type Status int

const (
	StatusOK Status = iota
	StatusWarn
	StatusErr
)

func (s Status) String() string {
	switch s {
	case StatusWarn:
		return "warn"
	case StatusErr:
		return "error"
	default:
		return "ok"
	}
}
