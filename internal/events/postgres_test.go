package events

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*PGStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewPGStore(db), mock
}

func TestPGCreateEvent(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`insert into events`)).
		WithArgs("Expo", "Annual expo", "Business", "2026-10-01", "Almaty", 50.0, "", "Gatherly").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(7), now, now))

	e := &Event{
		Name:        "Expo",
		Description: "Annual expo",
		Category:    "Business",
		Date:        "2026-10-01",
		Location:    "Almaty",
		Price:       50,
		Organizer:   "Gatherly",
	}
	if err := store.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("CreateEvent: %v", err)
	}
	if e.ID != 7 {
		t.Fatalf("ID = %d, want 7", e.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGGetEventNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`select id, name`)).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := store.GetEvent(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGUpdateEventMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`update events set`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateEvent(context.Background(), &Event{ID: 404, Name: "x"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGListCardsDecodesTags(t *testing.T) {
	store, mock := newMockStore(t)

	cols := []string{"id", "event_id", "name", "description", "category", "date", "location", "price", "image", "organizer", "rating", "attendees", "tags"}
	mock.ExpectQuery(regexp.QuoteMeta(`from event_cards`)).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(int64(1), int64(3), "Expo", "", "Business", "2026-10-01", "Almaty", 50.0, "", "Gatherly", 4.5, 12, []byte(`["expo","business"]`)))

	cards, err := store.ListCards(context.Background())
	if err != nil {
		t.Fatalf("ListCards: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("len(cards) = %d", len(cards))
	}
	if got := cards[0].Tags; len(got) != 2 || got[0] != "expo" {
		t.Fatalf("Tags = %v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPGCreatePurchase(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(`insert into ticket_purchases`)).
		WithArgs(int64(3), "a@b.com", 2).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), now))

	p := &Purchase{EventID: 3, BuyerEmail: "a@b.com", Quantity: 2}
	if err := store.CreatePurchase(context.Background(), p); err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if p.ID != 9 {
		t.Fatalf("ID = %d, want 9", p.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
