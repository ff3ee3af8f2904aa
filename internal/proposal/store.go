// Package proposal holds staged mutation plans, at most one per owner.
package proposal

import (
	"sync"
	"time"

	"coo-bot/internal/fault"
	"coo-bot/internal/models"
)

// Store keeps pending proposals in memory, keyed by owner. Per-owner
// operations are atomic; proposals expire lazily on Get and are additionally
// swept on an interval to bound memory.
type Store struct {
	mu        sync.RWMutex
	proposals map[int64]*models.PendingProposal
	now       func() time.Time
}

func NewStore() *Store {
	return &Store{
		proposals: make(map[int64]*models.PendingProposal),
		now:       time.Now,
	}
}

// Put stages a proposal, replacing any existing one for the same owner.
func (s *Store) Put(p *models.PendingProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.OwnerID] = p
}

// Fetch returns the owner's pending proposal. An expired proposal is cleared
// and reported via a fault.KindExpired error so callers can distinguish
// "expired" from "nothing staged".
func (s *Store) Fetch(ownerID int64) (*models.PendingProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[ownerID]
	if !ok {
		return nil, nil
	}
	if p.Expired(s.now()) {
		delete(s.proposals, ownerID)
		return nil, fault.Newf(fault.KindExpired, "proposal for owner %d expired", ownerID)
	}
	return p, nil
}

// Get returns the owner's pending proposal if it has not expired, else nil.
func (s *Store) Get(ownerID int64) *models.PendingProposal {
	p, _ := s.Fetch(ownerID)
	return p
}

// Clear removes the owner's proposal unconditionally.
func (s *Store) Clear(ownerID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.proposals, ownerID)
}

// Sweep drops all expired proposals and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for owner, p := range s.proposals {
		if p.Expired(now) {
			delete(s.proposals, owner)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until stop is closed.
func (s *Store) StartSweeper(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Sweep()
			case <-stop:
				return
			}
		}
	}()
}
