// Package store persists OAuth credentials as one JSON file per user.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/taskiq/taskiq-auth/internal/auth/constants"
	"github.com/taskiq/taskiq-auth/internal/auth/models"
	"github.com/taskiq/taskiq-auth/internal/config"
	"github.com/taskiq/taskiq-auth/internal/logger"
	"go.uber.org/zap"
)

const (
	dirPerm  = fs.FileMode(0o700)
	filePerm = fs.FileMode(0o600)
)

// ErrInvalidUserID is returned for identifiers that cannot be mapped to a file name
var ErrInvalidUserID = errors.New("invalid user id")

// Error describes a failed store operation
type Error struct {
	Op     string // "save", "read"
	UserID string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("failed to %s token for %s: %v", e.Op, e.UserID, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CredentialStore saves and looks up per-user token records
type CredentialStore interface {
	Save(userID string, bundle *models.CredentialBundle) (string, error)
	Exists(userID string) models.TokenStatus
}

// FileStore keeps token records under a single directory. There is no
// locking: concurrent saves for the same user race and the last one wins.
type FileStore struct {
	fs  afero.Fs
	dir string
	now func() time.Time
}

// Option configures a FileStore
type Option func(*FileStore)

// WithClock overrides the clock used for created_at
func WithClock(now func() time.Time) Option {
	return func(s *FileStore) {
		s.now = now
	}
}

// NewFileStore creates a store rooted at dir on the given filesystem
func NewFileStore(fsys afero.Fs, dir string, opts ...Option) *FileStore {
	s := &FileStore{
		fs:  fsys,
		dir: dir,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig creates a store on the OS filesystem
func NewFromConfig(cfg *config.Config) *FileStore {
	return NewFileStore(afero.NewOsFs(), cfg.Storage.TokenDir)
}

// SanitizeUserID replaces every "@" with the at-marker
func SanitizeUserID(userID string) string {
	return strings.ReplaceAll(userID, "@", constants.AtMarker)
}

// Path returns the token file path for userID
func (s *FileStore) Path(userID string) (string, error) {
	name := SanitizeUserID(userID)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || name != filepath.Base(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUserID, userID)
	}
	return filepath.Join(s.dir, name+constants.TokenFileExt), nil
}

// Save writes the bundle for userID, replacing any previous record, and
// returns the path written.
func (s *FileStore) Save(userID string, bundle *models.CredentialBundle) (string, error) {
	path, err := s.Path(userID)
	if err != nil {
		return "", &Error{Op: "save", UserID: userID, Err: err}
	}

	serialized, err := bundle.Serialize()
	if err != nil {
		return "", &Error{Op: "save", UserID: userID, Err: fmt.Errorf("failed to serialize credentials: %w", err)}
	}

	data, err := json.Marshal(models.TokenRecord{
		Token:     serialized,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", &Error{Op: "save", UserID: userID, Err: err}
	}

	if err := s.fs.MkdirAll(s.dir, dirPerm); err != nil {
		return "", &Error{Op: "save", UserID: userID, Err: err}
	}
	if err := afero.WriteFile(s.fs, path, data, filePerm); err != nil {
		return "", &Error{Op: "save", UserID: userID, Err: err}
	}

	logger.Debug("Saved token", zap.String("user_id", userID), zap.String("path", path))
	return path, nil
}

// Exists reports whether a usable record is stored for userID. Read and
// parse failures are reported as absence; the token payload itself is not
// inspected.
func (s *FileStore) Exists(userID string) models.TokenStatus {
	path, err := s.Path(userID)
	if err != nil {
		return models.TokenStatus{Message: fmt.Sprintf("Error reading token: %v", err)}
	}

	data, err := afero.ReadFile(s.fs, path)
	if errors.Is(err, os.ErrNotExist) {
		return models.TokenStatus{Message: "No token found for user"}
	}
	if err != nil {
		logger.Warn("Failed to read token file", zap.String("path", path), zap.Error(err))
		return models.TokenStatus{Message: fmt.Sprintf("Error reading token: %v", err)}
	}

	// created_at is passed through as stored
	var record struct {
		CreatedAt *string `json:"created_at"`
	}
	if err := json.Unmarshal(data, &record); err != nil {
		logger.Warn("Failed to parse token file", zap.String("path", path), zap.Error(err))
		return models.TokenStatus{Message: fmt.Sprintf("Error reading token: %v", err)}
	}

	return models.TokenStatus{
		HasToken:  true,
		CreatedAt: record.CreatedAt,
		Message:   "Token found for user",
	}
}
