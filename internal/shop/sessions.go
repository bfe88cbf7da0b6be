package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CreateSession starts an anonymous browsing session and returns its token.
// Carts hang off the session, so visitors can shop before logging in.
func (s *Store) CreateSession(ctx context.Context) (string, error) {
	token := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (token, account_id, created_at) VALUES (?, NULL, ?)
	`, token, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return token, nil
}

// AttachAccount binds a session to an account after login. The session keeps
// its token, so a cart built before login survives it.
func (s *Store) AttachAccount(ctx context.Context, token string, accountID int64) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET account_id = ? WHERE token = ?
	`, accountID, token)
	if err != nil {
		return fmt.Errorf("attach account to session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("attach account to session: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DetachAccount clears the account binding on logout but keeps the session.
func (s *Store) DetachAccount(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sessions SET account_id = NULL WHERE token = ?
	`, token)
	if err != nil {
		return fmt.Errorf("detach account from session: %w", err)
	}
	return nil
}

// SessionAccount resolves a session token. It returns (nil, nil) for a valid
// anonymous session, the account for a logged-in one, and ErrSessionNotFound
// for an unknown token.
func (s *Store) SessionAccount(ctx context.Context, token string) (*Account, error) {
	var accountID sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id FROM sessions WHERE token = ?
	`, token).Scan(&accountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("look up session: %w", err)
	}

	if !accountID.Valid {
		return nil, nil
	}
	account, err := s.AccountByID(ctx, accountID.Int64)
	if err != nil {
		// Account deleted out from under the session.
		if errors.Is(err, ErrAccountNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return account, nil
}

// DeleteSession removes a session and, via cascade, its cart.
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
