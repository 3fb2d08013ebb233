package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"soundshelf/internal/models"
)

// registrationLockKey serializes registrations so exactly one first user becomes admin.
const registrationLockKey = 7_321_001

// CreateUser inserts a user. The first user ever registered is made an admin.
func (s *Store) CreateUser(ctx context.Context, username, email, passwordHash string) (models.User, error) {
	user := models.User{Username: username, Email: email, Role: models.RoleUser}

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, registrationLockKey); err != nil {
			return fmt.Errorf("lock registrations: %w", err)
		}

		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users)`).Scan(&exists); err != nil {
			return fmt.Errorf("count users: %w", err)
		}
		if !exists {
			user.Role = models.RoleAdmin
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO users (username, email, password_hash, role, created_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, username, email, passwordHash, string(user.Role), time.Now().UTC()).Scan(&user.ID, &user.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrUserExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

// UserByID returns the user with the given id.
func (s *Store) UserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at
		FROM users
		WHERE username = $1
	`, username)
	return scanUser(row)
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, role, created_at
		FROM users
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// CredentialsByEmail returns the user and password hash for email.
func (s *Store) CredentialsByEmail(ctx context.Context, email string) (models.Credentials, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at, password_hash
		FROM users
		WHERE email = $1
	`, email)
	return scanCredentials(row)
}

// CredentialsByID returns the user and password hash for id.
func (s *Store) CredentialsByID(ctx context.Context, id int64) (models.Credentials, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, username, email, role, created_at, password_hash
		FROM users
		WHERE id = $1
	`, id)
	return scanCredentials(row)
}

// UpdateUserRole sets the role of a user and returns the updated user.
func (s *Store) UpdateUserRole(ctx context.Context, id int64, role models.Role) (models.User, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE users
		SET role = $1
		WHERE id = $2
		RETURNING id, username, email, role, created_at
	`, string(role), id)
	return scanUser(row)
}

// UpdateUserPassword replaces the stored password hash of a user.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// DeleteUser removes a user together with the playlists it owns.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM playlist_songs
			WHERE playlist_id IN (SELECT id FROM playlists WHERE user_id = $1)
		`, id); err != nil {
			return fmt.Errorf("delete playlist songs: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM playlists WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("delete playlists: %w", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			return ErrUserNotFound
		}
		return nil
	})
}

func scanUser(row rowScanner) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func scanCredentials(row rowScanner) (models.Credentials, error) {
	var creds models.Credentials
	if err := row.Scan(&creds.ID, &creds.Username, &creds.Email, &creds.Role, &creds.CreatedAt, &creds.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Credentials{}, ErrUserNotFound
		}
		return models.Credentials{}, fmt.Errorf("scan credentials: %w", err)
	}
	return creds, nil
}
