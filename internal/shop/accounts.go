package shop

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Account is a registered shop account.
type Account struct {
	ID         int64
	Email      string
	Name       string
	Title      string
	BirthDate  string
	BirthMonth string
	BirthYear  string
	FirstName  string
	LastName   string
	Company    string
	Address1   string
	Address2   string
	Country    string
	State      string
	City       string
	Zipcode    string
	Mobile     string
	CreatedAt  time.Time
}

// Registration carries the full profile the registration endpoint collects.
type Registration struct {
	Name       string
	Email      string
	Password   string
	Title      string
	BirthDate  string
	BirthMonth string
	BirthYear  string
	FirstName  string
	LastName   string
	Company    string
	Address1   string
	Address2   string
	Country    string
	State      string
	City       string
	Zipcode    string
	Mobile     string
}

// RegisterAccount creates an account with a hashed password. Returns
// ErrAccountExists when the email is already registered (case-insensitive).
func (s *Store) RegisterAccount(ctx context.Context, reg Registration) (*Account, error) {
	email := strings.TrimSpace(reg.Email)
	if email == "" || reg.Password == "" || reg.Name == "" {
		return nil, fmt.Errorf("registration requires name, email and password")
	}

	passwordHash, err := HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (
			email, name, password_hash, title,
			birth_date, birth_month, birth_year,
			firstname, lastname, company,
			address1, address2, country, state, city, zipcode, mobile_number,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, email, reg.Name, passwordHash, reg.Title,
		reg.BirthDate, reg.BirthMonth, reg.BirthYear,
		reg.FirstName, reg.LastName, reg.Company,
		reg.Address1, reg.Address2, reg.Country, reg.State, reg.City, reg.Zipcode, reg.Mobile,
		now.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, ErrAccountExists
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("read account id: %w", err)
	}

	s.log.Info("account registered", "account_id", id, "email", email)
	return s.AccountByID(ctx, id)
}

// Authenticate verifies email/password and returns the account. Returns
// ErrInvalidCredentials for an unknown email or a wrong password, without
// distinguishing the two.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`, password_hash
		FROM accounts WHERE email = ?
	`, strings.TrimSpace(email))

	var account Account
	var createdAt int64
	var passwordHash string
	if err := scanAccount(row, &account, &createdAt, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}

	if !VerifyPassword(password, passwordHash) {
		return nil, ErrInvalidCredentials
	}

	account.CreatedAt = time.Unix(createdAt, 0)
	return &account, nil
}

// AccountByEmail returns the account for an email, or ErrAccountNotFound.
func (s *Store) AccountByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`, password_hash
		FROM accounts WHERE email = ?
	`, strings.TrimSpace(email))
	return s.scanAccountRow(row)
}

// AccountByID returns the account for an id, or ErrAccountNotFound.
func (s *Store) AccountByID(ctx context.Context, id int64) (*Account, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`, password_hash
		FROM accounts WHERE id = ?
	`, id)
	return s.scanAccountRow(row)
}

// DeleteAccount removes an account after verifying the credentials. Sessions,
// carts and orders cascade away with it.
func (s *Store) DeleteAccount(ctx context.Context, email, password string) error {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, account.ID); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.Info("account deleted", "account_id", account.ID, "email", account.Email)
	return nil
}

// DeleteAccountByID removes an account without a credential check. Used by
// the web delete flow, where holding the session already proves ownership.
func (s *Store) DeleteAccountByID(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected == 0 {
		return ErrAccountNotFound
	}

	s.log.Info("account deleted", "account_id", id)
	return nil
}

const accountColumns = `id, email, name, title,
	birth_date, birth_month, birth_year,
	firstname, lastname, company,
	address1, address2, country, state, city, zipcode, mobile_number,
	created_at`

func (s *Store) scanAccountRow(row *sql.Row) (*Account, error) {
	var account Account
	var createdAt int64
	var passwordHash string
	if err := scanAccount(row, &account, &createdAt, &passwordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("look up account: %w", err)
	}
	account.CreatedAt = time.Unix(createdAt, 0)
	return &account, nil
}

func scanAccount(row *sql.Row, account *Account, createdAt *int64, passwordHash *string) error {
	return row.Scan(
		&account.ID, &account.Email, &account.Name, &account.Title,
		&account.BirthDate, &account.BirthMonth, &account.BirthYear,
		&account.FirstName, &account.LastName, &account.Company,
		&account.Address1, &account.Address2, &account.Country, &account.State,
		&account.City, &account.Zipcode, &account.Mobile,
		createdAt, passwordHash,
	)
}
