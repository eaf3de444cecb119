package match

import (
	"encoding/json"

	"github.com/kailas-cloud/ideahub/internal/domain/similarity"
)

// Kind classifies the outcome of one matching run.
type Kind int

// Decision kinds. Aborted means the pipeline never produced a ranking,
// which is not the same as finding nothing.
const (
	NoMatch Kind = iota
	SingleMatch
	MultiMatch
	Aborted
)

func (k Kind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case SingleMatch:
		return "single_match"
	case MultiMatch:
		return "multi_match"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the kind by name.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String()) //nolint:wrapcheck // plain string
}

// Decision is the terminal state of a matching run.
type Decision struct {
	Kind       Kind
	Candidates []similarity.Candidate
	Threshold  float64
	Err        error // set only for Aborted
}

// Classify maps a ranked result set to its decision kind.
func Classify(candidates []similarity.Candidate) Kind {
	switch len(candidates) {
	case 0:
		return NoMatch
	case 1:
		return SingleMatch
	default:
		return MultiMatch
	}
}
