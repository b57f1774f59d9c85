package events

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*InMemoryStore)(nil)

// InMemoryStore is a Store for tests and single-process development.
type InMemoryStore struct {
	mu         sync.RWMutex
	nextID     int64
	events     map[int64]*Event
	cards      map[int64]*EventCard
	purchases  map[int64]*Purchase
	nextCardID int64
	nextPurID  int64
}

// NewInMemoryStore returns an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		events:    make(map[int64]*Event),
		cards:     make(map[int64]*EventCard),
		purchases: make(map[int64]*Purchase),
	}
}

func cloneEvent(e *Event) *Event {
	copied := *e
	return &copied
}

func cloneCard(c *EventCard) *EventCard {
	copied := *c
	copied.Tags = append([]string(nil), c.Tags...)
	return &copied
}

func (s *InMemoryStore) CreateEvent(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.events[e.ID] = cloneEvent(e)
	return nil
}

func (s *InMemoryStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneEvent(e), nil
}

func (s *InMemoryStore) ListEvents(ctx context.Context) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Event, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, cloneEvent(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) UpdateEvent(ctx context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.events[e.ID]
	if !ok {
		return ErrNotFound
	}
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.events[e.ID] = cloneEvent(e)
	return nil
}

func (s *InMemoryStore) DeleteEvent(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *InMemoryStore) CreateCard(ctx context.Context, c *EventCard) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextCardID++
	c.ID = s.nextCardID
	s.cards[c.ID] = cloneCard(c)
	return nil
}

func (s *InMemoryStore) ListCards(ctx context.Context) ([]*EventCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*EventCard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, cloneCard(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) AddCardAttendees(ctx context.Context, eventID int64, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.cards {
		if c.EventID == eventID {
			c.Attendees += delta
		}
	}
	return nil
}

func (s *InMemoryStore) CreatePurchase(ctx context.Context, p *Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPurID++
	p.ID = s.nextPurID
	p.CreatedAt = time.Now().UTC()
	copied := *p
	s.purchases[p.ID] = &copied
	return nil
}

func (s *InMemoryStore) ListPurchasesByEvent(ctx context.Context, eventID int64) ([]*Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Purchase
	for _, p := range s.purchases {
		if p.EventID == eventID {
			copied := *p
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
