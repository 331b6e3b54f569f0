package checkin

import "errors"

// Sentinel errors. Rewards clients wrap their failures with these via %w so
// the workflow can classify them without knowing the client.
var (
	// ErrInvalidCredential means the stored token was rejected by the
	// rewards service. The account must be registered again.
	ErrInvalidCredential = errors.New("checkin: invalid credential")

	// ErrAlreadyClaimed means today's reward was already collected,
	// either by a previous tick or outside this process.
	ErrAlreadyClaimed = errors.New("checkin: reward already claimed")

	// ErrRetriesExhausted wraps the last failure once the retry budget is spent.
	ErrRetriesExhausted = errors.New("checkin: retries exhausted")

	ErrAlreadyStarted = errors.New("checkin: scheduler already started")
	ErrNotStarted     = errors.New("checkin: scheduler not started")
)

// ErrorKind is the closed set of failure classes the workflow switches on.
type ErrorKind int

const (
	// KindOther covers transient and unknown failures. They are retried.
	KindOther ErrorKind = iota
	KindInvalidCredential
	KindAlreadyClaimed
)

// String returns a human-readable label for the kind.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid_credential"
	case KindAlreadyClaimed:
		return "already_claimed"
	default:
		return "other"
	}
}

// Classify maps an error onto an ErrorKind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrInvalidCredential):
		return KindInvalidCredential
	case errors.Is(err, ErrAlreadyClaimed):
		return KindAlreadyClaimed
	default:
		return KindOther
	}
}
