package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: "sqlite", DataDir: "/tmp/data"},
		},
		{
			name:   "sqlite with empty DataDir is valid at config level",
			config: Config{Backend: "sqlite", DataDir: ""},
		},
		{
			name:    "negative idle timeout rejected",
			config:  Config{Backend: "sqlite", IdleTimeout: -time.Second},
			wantErr: ErrIdleTimeoutInvalid,
		},
		{
			name:    "negative image limit rejected",
			config:  Config{Backend: "sqlite", ImageMaxBytes: -1},
			wantErr: ErrImageLimitInvalid,
		},
		{
			name: "seed user with unknown role rejected",
			config: Config{Backend: "sqlite", SeedUsers: []SeedUser{
				{Email: "a@b.c", Password: "x", Role: "owner"},
			}},
			wantErr: ErrSeedUserInvalid,
		},
		{
			name: "seed user without password rejected",
			config: Config{Backend: "sqlite", SeedUsers: []SeedUser{
				{Email: "a@b.c", Role: RoleViewer},
			}},
			wantErr: ErrSeedUserInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	assert.Equal(t, DefaultIdleTimeout, c.GetIdleTimeout())
	assert.Equal(t, DefaultCheckInterval, c.GetCheckInterval())
	assert.Equal(t, DefaultTokenTTL, c.GetTokenTTL())
	assert.Equal(t, int64(DefaultImageMaxBytes), c.GetImageMaxBytes())
	assert.Equal(t, DefaultServerURL, c.GetServerURL())

	c.IdleTimeout = time.Minute
	c.ImageMaxBytes = 10
	assert.Equal(t, time.Minute, c.GetIdleTimeout())
	assert.Equal(t, int64(10), c.GetImageMaxBytes())
}
