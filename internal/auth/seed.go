package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SeedAccount describes a bootstrap identity created at seed time.
type SeedAccount struct {
	Name         string
	Email        string
	Password     string
	Organization string
	Roles        []Role
}

// DefaultSeedPassword is the plaintext for every default seed account.
const DefaultSeedPassword = "password"

// DefaultSeedAccounts returns the sample accounts for local development:
// one admin, one organizer, one attendee.
func DefaultSeedAccounts() []SeedAccount {
	return []SeedAccount{
		{
			Name:     "Admin",
			Email:    "admin@gatherly.local",
			Password: DefaultSeedPassword,
			Roles:    []Role{RoleAdmin},
		},
		{
			Name:         "Olga Organizer",
			Email:        "organizer@gatherly.local",
			Password:     DefaultSeedPassword,
			Organization: "Gatherly Events",
			Roles:        []Role{RoleOrganizer},
		},
		{
			Name:     "Aigerim Attendee",
			Email:    "attendee@gatherly.local",
			Password: DefaultSeedPassword,
			Roles:    []Role{RoleAttendee},
		},
	}
}

// SeedUsers creates the given accounts unless they already exist. Hashes
// are computed here, so seeded credentials always verify against the
// account's plaintext password. Existing emails are left untouched.
func SeedUsers(ctx context.Context, store UserStore, accounts []SeedAccount) error {
	for _, acct := range accounts {
		email := strings.TrimSpace(strings.ToLower(acct.Email))
		exists, err := store.ExistsByEmail(ctx, email)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		hash, err := HashPassword(acct.Password)
		if err != nil {
			return fmt.Errorf("seed %s: %w", email, err)
		}
		roles := acct.Roles
		if len(roles) == 0 {
			roles = []Role{RoleAttendee}
		}
		organization := strings.TrimSpace(acct.Organization)
		if !containsRole(roles, RoleOrganizer) {
			organization = ""
		}
		user := &User{
			Name:         strings.TrimSpace(acct.Name),
			Email:        email,
			PasswordHash: hash,
			Organization: organization,
			Roles:        roles,
		}
		if err := store.Create(ctx, user); err != nil {
			// A concurrent seeder winning the race is not an error.
			if errors.Is(err, ErrConflict) {
				continue
			}
			return fmt.Errorf("seed %s: %w", email, err)
		}
	}
	return nil
}
