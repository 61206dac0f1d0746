package booking

import (
	"sync"
	"time"

	domain "github.com/chronoline/booking-api/internal/domain/booking"
	"github.com/chronoline/booking-api/internal/httperr"
)

// ProposalStore keeps issued proposals in memory until they are confirmed,
// abandoned or expired. Proposals are advisory state, not bookings, so
// losing them on restart only costs callers a re-propose.
type ProposalStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	byID map[string]*domain.Proposal

	stop chan struct{}
}

func NewProposalStore(ttl time.Duration) *ProposalStore {
	s := &ProposalStore{
		ttl:  ttl,
		byID: make(map[string]*domain.Proposal),
		stop: make(chan struct{}),
	}

	go s.janitor()
	return s
}

func (s *ProposalStore) TTL() time.Duration {
	return s.ttl
}

func (s *ProposalStore) Put(p *domain.Proposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p
}

// Get returns a snapshot of the proposal, or a ValidationError when the id
// is unknown or past its TTL.
func (s *ProposalStore) Get(id string) (domain.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok || p.Expired(time.Now()) {
		delete(s.byID, id)
		return domain.Proposal{}, httperr.ErrValidation("proposal_not_found")
	}

	return *p, nil
}

// Update runs fn on the live proposal under the store lock. Confirmation
// claims a proposal through here so a double-submitted confirm cannot run
// the insert twice.
func (s *ProposalStore) Update(id string, fn func(*domain.Proposal) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.byID[id]
	if !ok || p.Expired(time.Now()) {
		delete(s.byID, id)
		return httperr.ErrValidation("proposal_not_found")
	}

	return fn(p)
}

func (s *ProposalStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

func (s *ProposalStore) Close() {
	close(s.stop)
}

func (s *ProposalStore) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, p := range s.byID {
				if p.Expired(now) {
					delete(s.byID, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
