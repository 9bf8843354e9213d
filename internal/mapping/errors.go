package mapping

import (
	"errors"

	"ammindexer/internal/stores"
	"ammindexer/internal/tokens"
)

var (
	// ErrIgnored marks events that carry no economic meaning.
	ErrIgnored = errors.New("event ignored")
	// ErrOrderingViolation marks a notification with no pending record to finalize.
	ErrOrderingViolation = errors.New("no pending record for notification")
)

// Outcome is how a single handler invocation ended.
type Outcome string

const (
	OutcomeApplied             Outcome = "applied"
	OutcomeIgnored             Outcome = "ignored"
	OutcomeNotIndexed          Outcome = "not_indexed"
	OutcomeOrderingViolation   Outcome = "ordering_violation"
	OutcomeMetadataUnavailable Outcome = "metadata_unavailable"
	OutcomeFailed              Outcome = "failed"
)

// Classify maps a handler result to its outcome. Every outcome other than
// OutcomeFailed is an expected, self-correcting skip; writes issued before the
// abort point stay committed in all cases.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeApplied
	case errors.Is(err, ErrIgnored):
		return OutcomeIgnored
	case errors.Is(err, ErrOrderingViolation):
		return OutcomeOrderingViolation
	case errors.Is(err, tokens.ErrMetadataUnavailable):
		return OutcomeMetadataUnavailable
	case errors.Is(err, stores.ErrNotFound):
		return OutcomeNotIndexed
	default:
		return OutcomeFailed
	}
}
