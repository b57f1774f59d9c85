package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
)

var _ Store = (*PGStore)(nil)

// PGStore implements Store on PostgreSQL. Card tags are stored as a JSON
// column to keep the schema flat.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateEvent(ctx context.Context, e *Event) error {
	row := s.db.QueryRowContext(ctx,
		`insert into events(name, description, category, date, location, price, image, organizer)
		 values($1,$2,$3,$4,$5,$6,$7,$8)
		 returning id, created_at, updated_at`,
		e.Name, e.Description, e.Category, e.Date, e.Location, e.Price, e.Image, e.Organizer,
	)
	return row.Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (s *PGStore) GetEvent(ctx context.Context, id int64) (*Event, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, description, category, date, location, price, image, organizer, created_at, updated_at
		 from events where id=$1`, id)
	var e Event
	err := row.Scan(&e.ID, &e.Name, &e.Description, &e.Category, &e.Date, &e.Location,
		&e.Price, &e.Image, &e.Organizer, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (s *PGStore) ListEvents(ctx context.Context) ([]*Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, description, category, date, location, price, image, organizer, created_at, updated_at
		 from events order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Category, &e.Date, &e.Location,
			&e.Price, &e.Image, &e.Organizer, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *PGStore) UpdateEvent(ctx context.Context, e *Event) error {
	res, err := s.db.ExecContext(ctx,
		`update events set name=$1, description=$2, category=$3, date=$4, location=$5, price=$6, image=$7, organizer=$8, updated_at=now()
		 where id=$9`,
		e.Name, e.Description, e.Category, e.Date, e.Location, e.Price, e.Image, e.Organizer, e.ID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) DeleteEvent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from events where id=$1`, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (s *PGStore) CreateCard(ctx context.Context, c *EventCard) error {
	tags, err := json.Marshal(c.Tags)
	if err != nil {
		return err
	}
	row := s.db.QueryRowContext(ctx,
		`insert into event_cards(event_id, name, description, category, date, location, price, image, organizer, rating, attendees, tags)
		 values($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		 returning id`,
		nullableID(c.EventID), c.Name, c.Description, c.Category, c.Date, c.Location,
		c.Price, c.Image, c.Organizer, c.Rating, c.Attendees, tags,
	)
	return row.Scan(&c.ID)
}

func (s *PGStore) ListCards(ctx context.Context) ([]*EventCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, coalesce(event_id, 0), name, description, category, date, location, price, image, organizer, rating, attendees, tags
		 from event_cards order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*EventCard
	for rows.Next() {
		var (
			c    EventCard
			tags []byte
		)
		if err := rows.Scan(&c.ID, &c.EventID, &c.Name, &c.Description, &c.Category, &c.Date,
			&c.Location, &c.Price, &c.Image, &c.Organizer, &c.Rating, &c.Attendees, &tags); err != nil {
			return nil, err
		}
		_ = json.Unmarshal(tags, &c.Tags)
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *PGStore) AddCardAttendees(ctx context.Context, eventID int64, delta int) error {
	_, err := s.db.ExecContext(ctx,
		`update event_cards set attendees = attendees + $1 where event_id=$2`, delta, eventID)
	return err
}

func (s *PGStore) CreatePurchase(ctx context.Context, p *Purchase) error {
	row := s.db.QueryRowContext(ctx,
		`insert into ticket_purchases(event_id, buyer_email, quantity)
		 values($1,$2,$3)
		 returning id, created_at`,
		p.EventID, p.BuyerEmail, p.Quantity,
	)
	return row.Scan(&p.ID, &p.CreatedAt)
}

func (s *PGStore) ListPurchasesByEvent(ctx context.Context, eventID int64) ([]*Purchase, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, event_id, buyer_email, quantity, created_at
		 from ticket_purchases where event_id=$1 order by id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.EventID, &p.BuyerEmail, &p.Quantity, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
