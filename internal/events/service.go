package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gatherly.org/internal/cache"
	"gatherly.org/internal/obs"
)

const (
	eventsAllCacheKey = "events:all"
	eventCacheTTL     = cache.DefaultTTL
)

func eventCacheKey(id int64) string {
	return fmt.Sprintf("event:%d", id)
}

// Service validates and executes catalog operations, reading through the
// cache where it can.
type Service struct {
	store Store
	cache cache.Cache
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithCache enables read-through caching of events and cards.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// NewService constructs the catalog service.
func NewService(store Store, opts ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("events: store is required")
	}
	s := &Service{store: store, cache: cache.Noop{}}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func validateEventInput(in EventInput) error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	case strings.TrimSpace(in.Description) == "":
		return fmt.Errorf("%w: description is required", ErrInvalidInput)
	case strings.TrimSpace(in.Category) == "":
		return fmt.Errorf("%w: category is required", ErrInvalidInput)
	case strings.TrimSpace(in.Location) == "":
		return fmt.Errorf("%w: location is required", ErrInvalidInput)
	case strings.TrimSpace(in.Organizer) == "":
		return fmt.Errorf("%w: organizer is required", ErrInvalidInput)
	case in.Price < 0:
		return fmt.Errorf("%w: price must be >= 0", ErrInvalidInput)
	}
	if _, err := time.Parse(dateLayout, in.Date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
	}
	return nil
}

// CreateEvent validates and stores a new event.
func (s *Service) CreateEvent(ctx context.Context, in EventInput) (*Event, error) {
	if err := validateEventInput(in); err != nil {
		return nil, err
	}
	event := &Event{
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Date:        in.Date,
		Location:    strings.TrimSpace(in.Location),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Organizer:   strings.TrimSpace(in.Organizer),
	}
	if err := s.store.CreateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.invalidateEvent(ctx, event.ID)
	return event, nil
}

// GetEvent returns one event, read through the cache.
func (s *Service) GetEvent(ctx context.Context, id int64) (*Event, error) {
	var cached Event
	if found, err := s.cache.GetJSON(ctx, eventCacheKey(id), &cached); err == nil && found {
		return &cached, nil
	}
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, eventCacheKey(id), event, eventCacheTTL)
	return event, nil
}

// ListEvents returns all events, read through the cache.
func (s *Service) ListEvents(ctx context.Context) ([]*Event, error) {
	var cached []*Event
	if found, err := s.cache.GetJSON(ctx, eventsAllCacheKey, &cached); err == nil && found {
		return cached, nil
	}
	events, err := s.store.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, eventsAllCacheKey, events, eventCacheTTL)
	return events, nil
}

// UpdateEvent replaces the mutable fields of an event.
func (s *Service) UpdateEvent(ctx context.Context, id int64, in EventInput) (*Event, error) {
	if err := validateEventInput(in); err != nil {
		return nil, err
	}
	event, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event.Name = strings.TrimSpace(in.Name)
	event.Description = strings.TrimSpace(in.Description)
	event.Category = strings.TrimSpace(in.Category)
	event.Date = in.Date
	event.Location = strings.TrimSpace(in.Location)
	event.Price = in.Price
	event.Image = strings.TrimSpace(in.Image)
	event.Organizer = strings.TrimSpace(in.Organizer)

	if err := s.store.UpdateEvent(ctx, event); err != nil {
		return nil, err
	}
	s.invalidateEvent(ctx, id)
	_ = s.cache.SetJSON(ctx, eventCacheKey(id), event, eventCacheTTL)
	return event, nil
}

// DeleteEvent removes the event.
func (s *Service) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.store.DeleteEvent(ctx, id); err != nil {
		return err
	}
	s.invalidateEvent(ctx, id)
	return nil
}

// CreateCard stores a listing card.
func (s *Service) CreateCard(ctx context.Context, in CardInput) (*EventCard, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Date != "" {
		if _, err := time.Parse(dateLayout, in.Date); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
		}
	}
	if in.Rating < 0 || in.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 0 and 5", ErrInvalidInput)
	}
	if in.Attendees < 0 {
		return nil, fmt.Errorf("%w: attendees must be >= 0", ErrInvalidInput)
	}
	card := &EventCard{
		EventID:     in.EventID,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Date:        in.Date,
		Location:    strings.TrimSpace(in.Location),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Organizer:   strings.TrimSpace(in.Organizer),
		Rating:      in.Rating,
		Attendees:   in.Attendees,
		Tags:        in.Tags,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// ListCards returns all listing cards.
func (s *Service) ListCards(ctx context.Context) ([]*EventCard, error) {
	return s.store.ListCards(ctx)
}

// Purchase records a ticket purchase for an existing event and bumps the
// attendee count on its card, if any.
func (s *Service) Purchase(ctx context.Context, eventID int64, buyerEmail string, quantity int) (*Purchase, error) {
	buyerEmail = strings.TrimSpace(strings.ToLower(buyerEmail))
	if buyerEmail == "" {
		return nil, fmt.Errorf("%w: buyer email is required", ErrInvalidInput)
	}
	if quantity <= 0 {
		quantity = 1
	}
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	purchase := &Purchase{EventID: eventID, BuyerEmail: buyerEmail, Quantity: quantity}
	if err := s.store.CreatePurchase(ctx, purchase); err != nil {
		return nil, err
	}
	// The purchase row is the durable record. The card attendee count is
	// denormalized display data; failing the request here would make a
	// client retry double-record the sale.
	if err := s.store.AddCardAttendees(ctx, eventID, quantity); err != nil {
		obs.LogJSON(map[string]any{
			"type":     "error",
			"msg":      "card attendee bump failed",
			"event_id": eventID,
			"error":    err.Error(),
		})
	}
	return purchase, nil
}

func (s *Service) invalidateEvent(ctx context.Context, id int64) {
	_ = s.cache.Delete(ctx, eventCacheKey(id), eventsAllCacheKey)
}
