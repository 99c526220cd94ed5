package event

import (
	"time"

	"github.com/xraph/tokensale/id"
)

// Record is one journaled event.
type Record struct {
	ID         id.EventID        `json:"id"`
	Sequence   uint64            `json:"sequence"`
	Type       Type              `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewRecord journals e under the given sequence number.
func NewRecord(seq uint64, e Event, at time.Time) *Record {
	return &Record{
		ID:         id.NewEventID(),
		Sequence:   seq,
		Type:       e.Type(),
		Attributes: e.Attributes(),
		Timestamp:  at.UTC(),
	}
}

// QueryOpts filters the journal. Results are ordered by sequence.
type QueryOpts struct {
	Type     Type
	AfterSeq uint64
	Limit    int
	Offset   int
}
