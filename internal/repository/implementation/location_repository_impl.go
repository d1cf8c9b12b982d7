package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"nova-drive-be/internal/entity"
	"nova-drive-be/internal/repository/contract"
)

// fileLocationRepository keeps the location in a small JSON file so the last
// position survives restarts and can be read by the emergency mailer.
type fileLocationRepository struct {
	path string
	mu   sync.RWMutex
}

func NewLocationRepository(path string) contract.ILocationRepository {
	return &fileLocationRepository{path: path}
}

func (r *fileLocationRepository) Save(ctx context.Context, loc entity.Location) error {
	data, err := json.MarshalIndent(loc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode location: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create location directory: %w", err)
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write location: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return fmt.Errorf("replace location file: %w", err)
	}
	return nil
}

func (r *fileLocationRepository) Load(ctx context.Context) (*entity.Location, error) {
	r.mu.RLock()
	data, err := os.ReadFile(r.path)
	r.mu.RUnlock()

	if errors.Is(err, fs.ErrNotExist) {
		return nil, contract.ErrLocationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}

	var loc entity.Location
	if err := json.Unmarshal(data, &loc); err != nil {
		return nil, fmt.Errorf("decode location: %w", err)
	}
	return &loc, nil
}
