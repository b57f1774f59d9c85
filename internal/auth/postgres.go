package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

var _ UserStore = (*PGStore)(nil)

// PGStore implements UserStore on PostgreSQL. The unique index on
// users.email is the source of truth for email uniqueness.
type PGStore struct {
	db *sql.DB
}

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func (s *PGStore) Create(ctx context.Context, u *User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`insert into users(name, email, password_hash, phone, organization, profile_pic)
		 values($1,$2,$3,$4,$5,$6)
		 returning id, created_at, updated_at`,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Organization, u.ProfilePic,
	)
	if err := row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	if err := insertRoles(ctx, tx, u.ID, u.Roles); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) Find(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, email, password_hash, phone, organization, profile_pic, created_at, updated_at
		 from users where id=$1`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	u.Roles, err = s.rolesFor(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select id, name, email, password_hash, phone, organization, profile_pic, created_at, updated_at
		 from users where email=$1`, email)
	u, err := scanUser(row)
	if err != nil {
		return nil, err
	}
	u.Roles, err = s.rolesFor(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *PGStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`select exists(select 1 from users where email=$1)`, email).Scan(&exists)
	return exists, err
}

func (s *PGStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, name, email, password_hash, phone, organization, profile_pic, created_at, updated_at
		 from users order by id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	index := make(map[int64]*User)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone,
			&u.Organization, &u.ProfilePic, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
		index[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	roleRows, err := s.db.QueryContext(ctx, `select user_id, role from user_roles order by user_id`)
	if err != nil {
		return nil, err
	}
	defer roleRows.Close()
	for roleRows.Next() {
		var (
			userID int64
			role   string
		)
		if err := roleRows.Scan(&userID, &role); err != nil {
			return nil, err
		}
		if u, ok := index[userID]; ok {
			u.Roles = append(u.Roles, Role(role))
		}
	}
	return users, roleRows.Err()
}

func (s *PGStore) Update(ctx context.Context, u *User) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`update users set name=$1, email=$2, password_hash=$3, phone=$4, organization=$5, profile_pic=$6, updated_at=now()
		 where id=$7`,
		u.Name, u.Email, u.PasswordHash, u.Phone, u.Organization, u.ProfilePic, u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `delete from user_roles where user_id=$1`, u.ID); err != nil {
		return err
	}
	if err := insertRoles(ctx, tx, u.ID, u.Roles); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *PGStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `delete from users where id=$1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) rolesFor(ctx context.Context, userID int64) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx,
		`select role from user_roles where user_id=$1 order by role`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, err
		}
		roles = append(roles, Role(role))
	}
	return roles, rows.Err()
}

func insertRoles(ctx context.Context, tx *sql.Tx, userID int64, roles []Role) error {
	for _, role := range roles {
		if _, err := tx.ExecContext(ctx,
			`insert into user_roles(user_id, role) values($1,$2) on conflict do nothing`,
			userID, string(role)); err != nil {
			return err
		}
	}
	return nil
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone,
		&u.Organization, &u.ProfilePic, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
