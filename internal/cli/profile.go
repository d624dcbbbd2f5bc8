package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is the on-disk CLI configuration, ~/.hangar.yaml by default.
type Profile struct {
	BaseURL             string        `yaml:"base_url"`
	APIKey              string        `yaml:"api_key"`
	AccessToken         string        `yaml:"access_token"`
	AuthTimeout         time.Duration `yaml:"auth_timeout"`
	AllowCachedFallback bool          `yaml:"allow_cached_fallback"`
	MaxCachedAge        time.Duration `yaml:"max_cached_age"`
	IdentityCache       string        `yaml:"identity_cache"`
}

func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".hangar.yaml"
	}
	return filepath.Join(home, ".hangar.yaml")
}

// LoadProfile reads path. A missing file yields an empty profile so flags
// alone are enough.
func LoadProfile(path string) (*Profile, error) {
	p := &Profile{}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

// Merge applies non-empty flag values over the file.
func (p *Profile) Merge(o *RootOptions) {
	if o.BaseURL != "" {
		p.BaseURL = o.BaseURL
	}
	if o.APIKey != "" {
		p.APIKey = o.APIKey
	}
	if o.AccessToken != "" {
		p.AccessToken = o.AccessToken
	}
	if o.Timeout > 0 {
		p.AuthTimeout = o.Timeout
	}
	if p.IdentityCache == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		p.IdentityCache = filepath.Join(dir, "hangar", "identity.yaml")
	}
}

func (p *Profile) Validate() error {
	if p.BaseURL == "" {
		return NewExitError(ExitCommandError, "base_url is not set; add it to the profile or pass --url")
	}
	if p.APIKey == "" {
		return NewExitError(ExitCommandError, "api_key is not set; add it to the profile or pass --api-key")
	}
	return nil
}

func (p *Profile) IdentityCachePath() string { return p.IdentityCache }
