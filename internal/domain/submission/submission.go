// Package submission models the optimistic two-phase lifecycle of a new idea:
// it is shown immediately under a provisional ID and later either committed
// under the store-assigned ID or rolled back.
package submission

import (
	"encoding/json"
	"errors"
)

// Status is the lifecycle stage of a submission.
type Status int

const (
	Provisional Status = iota
	Committed
	RolledBack
)

func (s Status) String() string {
	switch s {
	case Provisional:
		return "provisional"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// MarshalJSON renders the status as its string name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Outcome is the state of one submission.
type Outcome struct {
	status        Status
	provisionalID string
	id            string
	err           error
}

// Begin starts a submission under a locally generated provisional ID.
func Begin(provisionalID string) Outcome {
	return Outcome{status: Provisional, provisionalID: provisionalID}
}

// Commit moves a provisional outcome to Committed with the store-assigned ID.
// Anything other than a provisional outcome is returned unchanged.
func (o Outcome) Commit(id string) Outcome {
	if o.status != Provisional {
		return o
	}
	o.status = Committed
	o.id = id
	return o
}

// Rollback moves a provisional outcome to RolledBack.
// Anything other than a provisional outcome is returned unchanged.
func (o Outcome) Rollback(err error) Outcome {
	if o.status != Provisional {
		return o
	}
	if err == nil {
		err = errors.New("rolled back")
	}
	o.status = RolledBack
	o.err = err
	return o
}

func (o Outcome) Status() Status        { return o.status }
func (o Outcome) ProvisionalID() string { return o.provisionalID }
func (o Outcome) Err() error            { return o.err }

// ID returns the committed ID, or the provisional one before commit.
func (o Outcome) ID() string {
	if o.status == Committed {
		return o.id
	}
	return o.provisionalID
}
