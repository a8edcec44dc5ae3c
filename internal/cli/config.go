package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envServer overrides server_url.
	envServer = "PLANBOOK_SERVER"
)

var errInvalidConfig = errors.New("invalid config")

// Keys in config.yaml.
const (
	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyServerURL     = "server_url"
	cfgKeyListenAddr    = "listen_addr"
	cfgKeyIdleTimeout   = "idle_timeout"
	cfgKeyCheckInterval = "check_interval"
	cfgKeyTokenTTL      = "token_ttl"
	cfgKeyImageMaxBytes = "image_max_bytes"
	cfgKeySectionsFile  = "sections_file"
	cfgKeySeedUsers     = "seed_users"
)

// configFile is the layout of the config.yaml written on first run.
// Durations are strings so the file stays readable.
type configFile struct {
	Backend       string           `yaml:"backend"`
	DataDir       string           `yaml:"data_dir,omitempty"`
	ServerURL     string           `yaml:"server_url"`
	ListenAddr    string           `yaml:"listen_addr"`
	IdleTimeout   string           `yaml:"idle_timeout"`
	CheckInterval string           `yaml:"check_interval"`
	TokenTTL      string           `yaml:"token_ttl"`
	ImageMaxBytes int64            `yaml:"image_max_bytes"`
	SectionsFile  string           `yaml:"sections_file,omitempty"`
	SeedUsers     []types.SeedUser `yaml:"seed_users"`
}

// defaultSeedUsers are the accounts a fresh database starts with.
var defaultSeedUsers = []types.SeedUser{
	{Email: "admin@plankit.com", Username: "Admin User", Role: types.RoleAdmin, Password: "admin123"},
	{Email: "editor@plankit.com", Username: "Editor User", Role: types.RoleEditor, Password: "editor123"},
	{Email: "viewer@plankit.com", Username: "Viewer User", Role: types.RoleViewer, Password: "viewer123"},
}

func defaultConfigFile(dataDir string) configFile {
	return configFile{
		Backend:       types.BackendSQLite,
		DataDir:       dataDir,
		ServerURL:     types.DefaultServerURL,
		ListenAddr:    types.DefaultListenAddr,
		IdleTimeout:   types.DefaultIdleTimeout.String(),
		CheckInterval: types.DefaultCheckInterval.String(),
		TokenTTL:      types.DefaultTokenTTL.String(),
		ImageMaxBytes: types.DefaultImageMaxBytes,
		SeedUsers:     defaultSeedUsers,
	}
}

// loadConfig reads config.yaml from configDir with Viper, creating the
// directory and a default file on first run. initDataDir is recorded as
// data_dir when that default file is written.
func loadConfig(configDir, initDataDir string) (types.Config, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return types.Config{}, fmt.Errorf("create config dir: %w", err)
	}
	if _, err := writeConfigIfMissing(configDir, initDataDir); err != nil {
		return types.Config{}, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.BindEnv(cfgKeyServerURL, envServer); err != nil {
		return types.Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       v.GetString(cfgKeyDataDir),
		ServerURL:     v.GetString(cfgKeyServerURL),
		ListenAddr:    v.GetString(cfgKeyListenAddr),
		IdleTimeout:   v.GetDuration(cfgKeyIdleTimeout),
		CheckInterval: v.GetDuration(cfgKeyCheckInterval),
		TokenTTL:      v.GetDuration(cfgKeyTokenTTL),
		ImageMaxBytes: v.GetInt64(cfgKeyImageMaxBytes),
		SectionsFile:  v.GetString(cfgKeySectionsFile),
	}
	if err := v.UnmarshalKey(cfgKeySeedUsers, &cfg.SeedUsers); err != nil {
		return types.Config{}, fmt.Errorf("read %s: %w", cfgKeySeedUsers, err)
	}
	if cfg.SectionsFile != "" && !filepath.IsAbs(cfg.SectionsFile) {
		cfg.SectionsFile = filepath.Join(configDir, cfg.SectionsFile)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("%w: %w", errInvalidConfig, err)
	}
	return cfg, nil
}

// writeConfigIfMissing writes a default config.yaml into configDir unless
// one exists. It reports whether a file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# planbook configuration\n")
	if err := os.WriteFile(path, append(header, data...), 0o600); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
