// Package creds hands the identity generated by the API setup phase to the
// UI phase through a single-record JSON file on disk.
package creds

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/kuitang/shopflow/internal/errs"
	"github.com/kuitang/shopflow/internal/obs"
)

// Sentinel causes for the two distinguishable setup failures. Both carry
// errs.FailedPrecondition so they surface as setup errors, not UI failures.
var (
	ErrMissingCredentials   = errors.New("credentials record missing")
	ErrMalformedCredentials = errors.New("credentials record malformed")
)

// Record is the credential hand-off record. One record per run, written by
// the account-creation step and read by the purchase step.
type Record struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	ID       string `json:"id,omitempty"`
}

// Store reads and writes the hand-off file at a fixed path.
type Store struct {
	path string
	log  *slog.Logger
}

// NewStore returns a store for the given file path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		log:  obs.Pkg("creds"),
	}
}

// Path returns the hand-off file path.
func (s *Store) Path() string {
	return s.path
}

// Save persists the record. The write goes to a temp file first and is
// renamed into place, so a concurrent reader sees the previous record or the
// new one, never a torn write.
func (s *Store) Save(rec Record) error {
	if strings.TrimSpace(rec.Email) == "" || rec.Password == "" {
		return errs.New(errs.InvalidArgument, "credentials record requires email and password")
	}

	payload, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Internal, "marshal credentials record", err)
	}

	if dir := filepath.Dir(s.path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errs.Wrap(errs.Internal, fmt.Sprintf("create credentials directory %s", dir), err)
		}
	}

	tempPath := fmt.Sprintf("%s.tmp.%s", s.path, randomSuffix())
	if err := os.WriteFile(tempPath, payload, 0o600); err != nil {
		return errs.Wrap(errs.Internal, "write credentials temp file", err)
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return errs.Wrap(errs.Internal, "rename credentials file", err)
	}

	s.log.Info("credentials saved", "path", s.path, "email", rec.Email)
	return nil
}

// Load reads the record back, failing fast when the file is absent or the
// record is unusable. The error distinguishes the two cases so a missing
// setup phase never masquerades as a UI failure.
func (s *Store) Load() (Record, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, errs.Wrap(
				errs.FailedPrecondition,
				fmt.Sprintf("credentials file %s does not exist; run the account setup step first", s.path),
				ErrMissingCredentials,
			)
		}
		return Record{}, errs.Wrap(errs.FailedPrecondition, fmt.Sprintf("read credentials file %s", s.path), err)
	}

	if len(raw) == 0 {
		return Record{}, s.malformed("file is empty")
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, s.malformed(fmt.Sprintf("invalid JSON: %v", err))
	}
	if strings.TrimSpace(rec.Email) == "" {
		return Record{}, s.malformed("missing required field email")
	}
	if rec.Password == "" {
		return Record{}, s.malformed("missing required field password")
	}

	s.log.Debug("credentials loaded", "path", s.path, "email", rec.Email)
	return rec, nil
}

func (s *Store) malformed(detail string) error {
	return errs.Wrap(
		errs.FailedPrecondition,
		fmt.Sprintf("credentials file %s is malformed: %s", s.path, detail),
		ErrMalformedCredentials,
	)
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%d", os.Getpid())
	}
	return hex.EncodeToString(buf)
}
