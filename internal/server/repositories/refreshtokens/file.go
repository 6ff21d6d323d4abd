package refreshtokens

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dberzins/userauth/internal/common"
	"github.com/dberzins/userauth/internal/filex"
	"github.com/dberzins/userauth/internal/server/models"
)

const tokensFileName = "refresh_tokens.json"

// FileRepository implements the ledger over a flat JSON file. A single mutex
// guards every read-modify-write cycle, and writes go through an atomic
// rename, so concurrent operations see either the old file or the new one,
// never a torn state.
type FileRepository struct {
	mu   sync.Mutex
	path string
}

// NewFileRepository initializes the JSON store under dir, creating an empty
// one on first use.
func NewFileRepository(dir string) (*FileRepository, error) {
	r := &FileRepository{path: filepath.Join(dir, tokensFileName)}
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if err := filex.WriteFileAtomic(r.path, []byte("[]\n"), 0o640); err != nil {
			return nil, fmt.Errorf("%w: init %s: %v", common.ErrStorageUnavailable, tokensFileName, err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("%w: stat %s: %v", common.ErrStorageUnavailable, tokensFileName, err)
	}
	return r, nil
}

func (r *FileRepository) load() ([]models.RefreshToken, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrStorageUnavailable, tokensFileName, err)
	}
	var records []models.RefreshToken
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", common.ErrStorageUnavailable, tokensFileName, err)
	}
	return records, nil
}

func (r *FileRepository) save(records []models.RefreshToken) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode %s: %v", common.ErrStorageUnavailable, tokensFileName, err)
	}
	if err := filex.WriteFileAtomic(r.path, append(data, '\n'), 0o640); err != nil {
		return fmt.Errorf("%w: write %s: %v", common.ErrStorageUnavailable, tokensFileName, err)
	}
	return nil
}

// Create appends a new ledger record with an expiry time of now+validity.
func (r *FileRepository) Create(ctx context.Context, userID, token string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	now := time.Now()
	records = append(records, models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: now.Add(validity),
		CreatedAt: now,
	})
	return r.save(records)
}

// IsActive reports whether a matching, unexpired record exists.
func (r *FileRepository) IsActive(ctx context.Context, userID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return false, err
	}
	now := time.Now()
	for _, rec := range records {
		if rec.UserID == userID && rec.Token == token && rec.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the matching record; removing nothing is not an error.
func (r *FileRepository) Delete(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	kept := records[:0]
	removed := false
	for _, rec := range records {
		if rec.UserID == userID && rec.Token == token {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return nil
	}
	return r.save(kept)
}

// DeleteExpired removes all expired records and returns the count removed.
func (r *FileRepository) DeleteExpired(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return 0, err
	}
	now := time.Now()
	kept := records[:0]
	var removed int64
	for _, rec := range records {
		if !rec.ExpiresAt.After(now) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := r.save(kept); err != nil {
		return 0, err
	}
	return removed, nil
}

// Rotate consumes the old record and stores the new one inside one critical
// section: of two concurrent rotations of the same token, the loser finds
// the record already gone and gets common.ErrInvalidToken.
func (r *FileRepository) Rotate(ctx context.Context, userID, oldToken, newToken string, validity time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	records, err := r.load()
	if err != nil {
		return err
	}
	now := time.Now()
	kept := records[:0]
	consumed := false
	for _, rec := range records {
		if rec.UserID == userID && rec.Token == oldToken && rec.ExpiresAt.After(now) {
			consumed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !consumed {
		return common.ErrInvalidToken
	}
	kept = append(kept, models.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     newToken,
		ExpiresAt: now.Add(validity),
		CreatedAt: now,
	})
	return r.save(kept)
}
