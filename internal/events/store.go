package events

import "context"

// Store describes persistence for events, cards, and purchases.
type Store interface {
	CreateEvent(ctx context.Context, e *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context) ([]*Event, error)
	UpdateEvent(ctx context.Context, e *Event) error
	DeleteEvent(ctx context.Context, id int64) error

	CreateCard(ctx context.Context, c *EventCard) error
	ListCards(ctx context.Context) ([]*EventCard, error)
	// AddCardAttendees bumps the attendee count on the card tied to an
	// event. A missing card is not an error; not every event has one.
	AddCardAttendees(ctx context.Context, eventID int64, delta int) error

	CreatePurchase(ctx context.Context, p *Purchase) error
	ListPurchasesByEvent(ctx context.Context, eventID int64) ([]*Purchase, error)
}
