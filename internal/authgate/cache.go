package authgate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/patrickmn/go-cache"
	"gopkg.in/yaml.v3"
)

// CachedIdentity is the last identity the server confirmed.
type CachedIdentity struct {
	Identity dtos.Identity
	CachedAt time.Time
}

type IdentityCache interface {
	Load(ctx context.Context) (CachedIdentity, bool, error)
	Store(ctx context.Context, id CachedIdentity) error
	Clear(ctx context.Context) error
}

const identityKey = "identity"

type MemoryIdentityCache struct {
	c *cache.Cache
}

// NewMemoryIdentityCache keeps the identity for ttl; zero keeps it until
// cleared.
func NewMemoryIdentityCache(ttl time.Duration) *MemoryIdentityCache {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}
	return &MemoryIdentityCache{c: cache.New(ttl, 10*time.Minute)}
}

func (m *MemoryIdentityCache) Load(_ context.Context) (CachedIdentity, bool, error) {
	v, ok := m.c.Get(identityKey)
	if !ok {
		return CachedIdentity{}, false, nil
	}
	id, ok := v.(CachedIdentity)
	return id, ok, nil
}

func (m *MemoryIdentityCache) Store(_ context.Context, id CachedIdentity) error {
	m.c.SetDefault(identityKey, id)
	return nil
}

func (m *MemoryIdentityCache) Clear(_ context.Context) error {
	m.c.Delete(identityKey)
	return nil
}

// FileIdentityCache persists the identity between CLI runs.
type FileIdentityCache struct {
	path string
}

func NewFileIdentityCache(path string) *FileIdentityCache {
	return &FileIdentityCache{path: path}
}

type identityFile struct {
	UserID   string    `yaml:"user_id"`
	Email    string    `yaml:"email,omitempty"`
	Role     string    `yaml:"role"`
	PilotID  string    `yaml:"pilot_id,omitempty"`
	Name     string    `yaml:"name,omitempty"`
	IsAdmin  bool      `yaml:"is_admin"`
	CachedAt time.Time `yaml:"cached_at"`
}

func (f *FileIdentityCache) Load(_ context.Context) (CachedIdentity, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return CachedIdentity{}, false, nil
	}
	if err != nil {
		return CachedIdentity{}, false, fmt.Errorf("failed to read identity cache: %w", err)
	}

	var rec identityFile
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return CachedIdentity{}, false, fmt.Errorf("failed to parse identity cache: %w", err)
	}
	if rec.UserID == "" {
		return CachedIdentity{}, false, nil
	}

	return CachedIdentity{
		Identity: dtos.Identity{
			UserID:  rec.UserID,
			Email:   rec.Email,
			Role:    rec.Role,
			PilotID: rec.PilotID,
			Name:    rec.Name,
			IsAdmin: rec.IsAdmin,
		},
		CachedAt: rec.CachedAt,
	}, true, nil
}

func (f *FileIdentityCache) Store(_ context.Context, id CachedIdentity) error {
	data, err := yaml.Marshal(identityFile{
		UserID:   id.Identity.UserID,
		Email:    id.Identity.Email,
		Role:     id.Identity.Role,
		PilotID:  id.Identity.PilotID,
		Name:     id.Identity.Name,
		IsAdmin:  id.Identity.IsAdmin,
		CachedAt: id.CachedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode identity cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create identity cache dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write identity cache: %w", err)
	}
	return os.Rename(tmp, f.path)
}

func (f *FileIdentityCache) Clear(_ context.Context) error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear identity cache: %w", err)
	}
	return nil
}
