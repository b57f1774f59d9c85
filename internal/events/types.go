// Package events holds the event catalog: full event records, the
// denormalized listing cards shown on the home page, and ticket purchases.
package events

import (
	"errors"
	"time"
)

var (
	ErrInvalidInput = errors.New("events: invalid input")
	ErrNotFound     = errors.New("events: not found")
)

// dateLayout is the wire and storage format for event dates.
const dateLayout = "2006-01-02"

// Event is a full event record managed by admins and organizers.
type Event struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Date        string    `json:"date"`
	Location    string    `json:"location"`
	Price       float64   `json:"price"`
	Image       string    `json:"image"`
	Organizer   string    `json:"organizer"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventCard is the denormalized listing card, enriched with rating,
// attendance, and tags for browsing.
type EventCard struct {
	ID          int64    `json:"id"`
	EventID     int64    `json:"event_id,omitempty"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Organizer   string   `json:"organizer"`
	Rating      float64  `json:"rating"`
	Attendees   int      `json:"attendees"`
	Tags        []string `json:"tags"`
}

// Purchase records one ticket purchase by an attendee.
type Purchase struct {
	ID         int64     `json:"id"`
	EventID    int64     `json:"event_id"`
	BuyerEmail string    `json:"buyer_email"`
	Quantity   int       `json:"quantity"`
	CreatedAt  time.Time `json:"created_at"`
}

// EventInput carries the mutable fields of an event.
type EventInput struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Date        string  `json:"date"`
	Location    string  `json:"location"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Organizer   string  `json:"organizer"`
}

// CardInput carries the fields accepted when creating a card.
type CardInput struct {
	EventID     int64    `json:"event_id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	Location    string   `json:"location"`
	Price       float64  `json:"price"`
	Image       string   `json:"image"`
	Organizer   string   `json:"organizer"`
	Rating      float64  `json:"rating"`
	Attendees   int      `json:"attendees"`
	Tags        []string `json:"tags"`
}
