package domain

import "time"

// Snapshot is one accepted fetch: the full replacement history plus the
// records that were not present in the previous accepted history.
type Snapshot struct {
	Generation uint64    `json:"generation"`
	FetchedAt  time.Time `json:"fetched_at"`
	History    History   `json:"-"`
	New        History   `json:"-"`
}

// Latest returns the newest record of the snapshot's history.
func (s Snapshot) Latest() (Record, bool) {
	return s.History.Latest()
}
