package models

import "time"

// PendingProposal is a staged, not-yet-applied set of mutations awaiting
// explicit confirmation from its owner. At most one exists per owner; a newer
// proposal silently replaces it.
type PendingProposal struct {
	OwnerID   int64
	ChatID    int64
	Mutations []*MutationIntent
	Summary   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the proposal's TTL elapsed at the given instant.
func (p *PendingProposal) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// Outstanding returns the mutations not yet applied by a previous approve.
func (p *PendingProposal) Outstanding() []*MutationIntent {
	var rest []*MutationIntent
	for _, m := range p.Mutations {
		if !m.Applied {
			rest = append(rest, m)
		}
	}
	return rest
}
