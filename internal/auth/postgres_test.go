package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGStoreCreateAssignsIDAndRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery("insert into users").
		WithArgs("A", "a@x.com", sqlmock.AnyArg(), "", "OrgCo", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(1), now, now))
	mock.ExpectExec("insert into user_roles").
		WithArgs(int64(1), "ORGANIZER").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	user := &User{Name: "A", Email: "a@x.com", PasswordHash: "digest", Organization: "OrgCo", Roles: []Role{RoleOrganizer}}
	if err := store.Create(context.Background(), user); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID != 1 {
		t.Fatalf("expected assigned id, got %d", user.ID)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now().UTC()
	cols := []string{"id", "name", "email", "password_hash", "phone", "organization", "profile_pic", "created_at", "updated_at"}
	mock.ExpectQuery("select (.+) from users where email").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(4), "A", "a@x.com", "digest", "", "OrgCo", "", now, now))
	mock.ExpectQuery("select role from user_roles").
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow("ADMIN").AddRow("ORGANIZER"))

	store := NewPGStore(db)
	user, err := store.FindByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if user.ID != 4 || len(user.Roles) != 2 {
		t.Fatalf("unexpected user: %+v", user)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGStoreFindByEmailNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	cols := []string{"id", "name", "email", "password_hash", "phone", "organization", "profile_pic", "created_at", "updated_at"}
	mock.ExpectQuery("select (.+) from users where email").
		WithArgs("missing@x.com").
		WillReturnRows(sqlmock.NewRows(cols))

	store := NewPGStore(db)
	if _, err := store.FindByEmail(context.Background(), "missing@x.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreExistsByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select exists").
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	store := NewPGStore(db)
	exists, err := store.ExistsByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("ExistsByEmail: %v", err)
	}
	if !exists {
		t.Fatal("expected email to exist")
	}
}

func TestPGStoreDeleteMissingUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec("delete from users").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewPGStore(db)
	if err := store.Delete(context.Background(), 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGStoreUpdateReplacesRoles(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("update users set").
		WithArgs("A", "a@x.com", "digest", "", "", "", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from user_roles").
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("insert into user_roles").
		WithArgs(int64(4), "ATTENDEE").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	store := NewPGStore(db)
	user := &User{ID: 4, Name: "A", Email: "a@x.com", PasswordHash: "digest", Roles: []Role{RoleAttendee}}
	if err := store.Update(context.Background(), user); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
