package types

import (
	"errors"
	"time"
)

// Config holds backend selection and runtime parameters for planbook.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// ServerURL is the REST API base URL used by client commands.
	ServerURL string `json:"server_url,omitempty" yaml:"server_url,omitempty"`

	// ListenAddr is the address the serve command binds.
	ListenAddr string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`

	// IdleTimeout logs a session out after this much inactivity.
	IdleTimeout time.Duration `json:"idle_timeout,omitempty" yaml:"idle_timeout,omitempty"`

	// CheckInterval is the period of the session guard check.
	CheckInterval time.Duration `json:"check_interval,omitempty" yaml:"check_interval,omitempty"`

	// TokenTTL is the lifetime of issued access tokens.
	TokenTTL time.Duration `json:"token_ttl,omitempty" yaml:"token_ttl,omitempty"`

	// ImageMaxBytes caps the decoded size of narrative attachments.
	ImageMaxBytes int64 `json:"image_max_bytes,omitempty" yaml:"image_max_bytes,omitempty"`

	// SectionsFile overrides the embedded section catalogue.
	SectionsFile string `json:"sections_file,omitempty" yaml:"sections_file,omitempty"`

	// SeedUsers are created on first attach when no user with the same
	// email exists.
	SeedUsers []SeedUser `json:"seed_users,omitempty" yaml:"seed_users,omitempty"`
}

// SeedUser describes an account created at startup.
type SeedUser struct {
	Email    string `json:"email" yaml:"email"`
	Username string `json:"username" yaml:"username"`
	Role     Role   `json:"role" yaml:"role"`
	Password string `json:"password" yaml:"password"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by the getters below.
const (
	DefaultServerURL     = "http://127.0.0.1:8080/api"
	DefaultListenAddr    = "127.0.0.1:8080"
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultCheckInterval = 30 * time.Second
	DefaultTokenTTL      = 12 * time.Hour
	DefaultImageMaxBytes = 2 << 20
)

// Config validation errors.
var (
	ErrBackendEmpty         = errors.New("backend must not be empty")
	ErrBackendUnknown       = errors.New("unknown backend")
	ErrIdleTimeoutInvalid   = errors.New("idle timeout must not be negative")
	ErrCheckIntervalInvalid = errors.New("check interval must not be negative")
	ErrTokenTTLInvalid      = errors.New("token TTL must not be negative")
	ErrImageLimitInvalid    = errors.New("image size limit must not be negative")
	ErrSeedUserInvalid      = errors.New("seed user needs email, password and a valid role")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. Zero durations and limits
// are allowed and mean "use the default".
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	if c.IdleTimeout < 0 {
		return ErrIdleTimeoutInvalid
	}
	if c.CheckInterval < 0 {
		return ErrCheckIntervalInvalid
	}
	if c.TokenTTL < 0 {
		return ErrTokenTTLInvalid
	}
	if c.ImageMaxBytes < 0 {
		return ErrImageLimitInvalid
	}
	for _, u := range c.SeedUsers {
		if u.Email == "" || u.Password == "" {
			return ErrSeedUserInvalid
		}
		if _, err := ParseRole(string(u.Role)); err != nil {
			return ErrSeedUserInvalid
		}
	}
	return nil
}

// GetServerURL returns ServerURL or the default.
func (c Config) GetServerURL() string {
	if c.ServerURL == "" {
		return DefaultServerURL
	}
	return c.ServerURL
}

// GetListenAddr returns ListenAddr or the default.
func (c Config) GetListenAddr() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// GetIdleTimeout returns IdleTimeout or the default.
func (c Config) GetIdleTimeout() time.Duration {
	if c.IdleTimeout <= 0 {
		return DefaultIdleTimeout
	}
	return c.IdleTimeout
}

// GetCheckInterval returns CheckInterval or the default.
func (c Config) GetCheckInterval() time.Duration {
	if c.CheckInterval <= 0 {
		return DefaultCheckInterval
	}
	return c.CheckInterval
}

// GetTokenTTL returns TokenTTL or the default.
func (c Config) GetTokenTTL() time.Duration {
	if c.TokenTTL <= 0 {
		return DefaultTokenTTL
	}
	return c.TokenTTL
}

// GetImageMaxBytes returns ImageMaxBytes or the default.
func (c Config) GetImageMaxBytes() int64 {
	if c.ImageMaxBytes <= 0 {
		return DefaultImageMaxBytes
	}
	return c.ImageMaxBytes
}
