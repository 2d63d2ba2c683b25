package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/alexedwards/argon2id"

	"github.com/roach88/cube/internal/model"
)

// UserStore holds authentication principals. Passwords are stored as
// argon2id hashes.
type UserStore struct {
	s       *Store
	params  *argon2id.Params
	compare func(password, hash string) (bool, error)

	decoyOnce sync.Once
	decoyHash string
	decoyErr  error
}

// decoyPassword is hashed once per store and compared against when a login
// names an unknown user, so both paths pay for one argon2id comparison.
const decoyPassword = "bnZSraUCS+nZh3MI8F3iiXbKFBcAyJhvAB6u/GBJzhC00ZPAQlyYVpQ"

// UserStoreOption configures a UserStore.
type UserStoreOption func(*UserStore)

// WithHashParams sets the argon2id parameters used for new password hashes.
// Existing hashes carry their own parameters.
func WithHashParams(params *argon2id.Params) UserStoreOption {
	return func(us *UserStore) {
		us.params = params
	}
}

// NewUserStore creates a UserStore hashing with argon2id.DefaultParams.
func NewUserStore(s *Store, opts ...UserStoreOption) *UserStore {
	us := &UserStore{s: s, params: argon2id.DefaultParams, compare: argon2id.ComparePasswordAndHash}
	for _, opt := range opts {
		opt(us)
	}
	return us
}

// AddUser creates a user with the given password and roles.
// Returns false if the username is already taken.
func (us *UserStore) AddUser(ctx context.Context, user model.User, password string) (bool, error) {
	if user.Username == "" || password == "" {
		return false, nil
	}

	hash, err := argon2id.CreateHash(password, us.params)
	if err != nil {
		return false, fmt.Errorf("add user %s: hash password: %w", user.Username, err)
	}

	var inserted bool
	err = us.s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			INSERT INTO users (username, password_hash) VALUES (?, ?)
			ON CONFLICT(username) DO NOTHING
		`, user.Username, hash)
		if err != nil {
			return fmt.Errorf("insert: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		inserted = n > 0
		if !inserted {
			return nil
		}
		for _, role := range user.Roles {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_roles (username, role) VALUES (?, ?)
				ON CONFLICT(username, role) DO NOTHING
			`, user.Username, role); err != nil {
				return fmt.Errorf("insert role %s: %w", role, err)
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add user %s: %w", user.Username, err)
	}
	return inserted, nil
}

// GetUser returns a user and its roles, or ErrNotFound.
func (us *UserStore) GetUser(ctx context.Context, username string) (model.User, error) {
	var exists int
	err := us.s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username = ?`, username).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("get user %s: %w", username, ErrNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", username, err)
	}

	roles, err := us.roles(ctx, username)
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	return model.User{Username: username, Roles: roles}, nil
}

// Authenticate checks a username/password pair. Returns false for an
// unknown user or a wrong password; errors are reserved for storage faults.
func (us *UserStore) Authenticate(ctx context.Context, username, password string) (model.User, bool, error) {
	var hash string
	err := us.s.db.QueryRowContext(ctx, `
		SELECT password_hash FROM users WHERE username = ?
	`, username).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		if err := us.compareDecoy(password); err != nil {
			return model.User{}, false, fmt.Errorf("authenticate %s: %w", username, err)
		}
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, fmt.Errorf("authenticate %s: %w", username, err)
	}

	match, err := us.compare(password, hash)
	if err != nil {
		return model.User{}, false, fmt.Errorf("authenticate %s: compare: %w", username, err)
	}
	if !match {
		return model.User{}, false, nil
	}

	roles, err := us.roles(ctx, username)
	if err != nil {
		return model.User{}, false, fmt.Errorf("authenticate %s: %w", username, err)
	}
	return model.User{Username: username, Roles: roles}, true, nil
}

func (us *UserStore) roles(ctx context.Context, username string) ([]string, error) {
	rows, err := us.s.db.QueryContext(ctx, `
		SELECT role FROM user_roles WHERE username = ?
	`, username)
	if err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	defer rows.Close()

	roles := []string{}
	for rows.Next() {
		var role string
		if err := rows.Scan(&role); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select roles: %w", err)
	}
	sort.Strings(roles)
	return roles, nil
}

// compareDecoy spends one hash comparison on a password that never matches.
func (us *UserStore) compareDecoy(password string) error {
	us.decoyOnce.Do(func() {
		us.decoyHash, us.decoyErr = argon2id.CreateHash(decoyPassword, us.params)
	})
	if us.decoyErr != nil {
		return fmt.Errorf("create decoy hash: %w", us.decoyErr)
	}
	if _, err := us.compare(password, us.decoyHash); err != nil {
		return fmt.Errorf("compare: %w", err)
	}
	return nil
}
