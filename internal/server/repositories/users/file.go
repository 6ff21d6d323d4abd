package users

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/filex"
	"github.com/dberzins/userauth/internal/server/models"
)

const usersFileName = "users.json"

// FileRepository implements the user directory over a flat JSON file,
// with the same locking and atomic-write discipline as the file-backed
// token ledger.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository initializes the JSON store under dir, creating an empty
// one on first use.
func NewFileRepository(dir string) (*FileRepository, error) {
	r := &FileRepository{path: filepath.Join(dir, usersFileName)}
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if err := filex.WriteFileAtomic(r.path, []byte("[]\n"), 0o640); err != nil {
			return nil, fmt.Errorf("%w: init %s: %v", common.ErrStorageUnavailable, usersFileName, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", common.ErrStorageUnavailable, usersFileName, err)
	}
	return r, nil
}

func (r *FileRepository) load() ([]models.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorageUnavailable, usersFileName, err)
	}
	var records []models.User
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrStorageUnavailable, usersFileName, err)
	}
	return records, nil
}

func (r *FileRepository) save(records []models.User) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", common.ErrStorageUnavailable, usersFileName, err)
	}
	if err := filex.WriteFileAtomic(r.path, append(data, '\n'), 0o640); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrStorageUnavailable, usersFileName, err)
	}
	return nil
}

// Create stores a new user, rejecting duplicate emails.
func (r *FileRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if strings.EqualFold(rec.Email, user.Email) {
			return nil, common.ErrEmailAlreadyExists
		}
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.IsVerified = false
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastLogin = nil

	records = append(records, *user)
	if err := r.save(records); err != nil {
		return nil, err
	}
	return user, nil
}

// FindByEmail returns the active user with the given email.
func (r *FileRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

// FindByID returns the active user with the given id.
func (r *FileRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *FileRepository) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].IsActive && match(&records[i]) {
			u := records[i]
			return &u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// TouchLastLogin stamps the user's last successful authentication.
func (r *FileRepository) TouchLastLogin(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			now := time.Now()
			records[i].LastLogin = &now
			records[i].UpdatedAt = now
			return r.save(records)
		}
	}
	return nil
}
