// Package config locates and loads the formula client configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"formula/pkg/config/configfile"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// EnvOverrideConfigDir is the name of the environment variable that can be
	// used to override the location of the client configuration files (~/.formula).
	EnvOverrideConfigDir = "FORMULA_CONFIG"

	// EnvOverrideBinDir overrides the configured bin dir.
	EnvOverrideBinDir = "FORMULA_BIN_DIR"

	// EnvOverrideCacheDir overrides the configured artifact cache dir.
	EnvOverrideCacheDir = "FORMULA_CACHE_DIR"

	// ConfigFileName is the name of the client configuration file inside the
	// config-directory.
	ConfigFileName = "config.json"
	configFileDir  = ".formula"
)

var (
	initConfigDir = new(sync.Once)
	configDir     string
)

// resetConfigDir is used in testing to reset the "configDir" package variable
// and its sync.Once to force re-lookup between tests.
func resetConfigDir() {
	configDir = ""
	initConfigDir = new(sync.Once)
}

func getHomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		logrus.WithError(err).Debug("failed to resolve home directory")
		return ""
	}
	return home
}

// Dir returns the directory the configuration file is stored in
func Dir() string {
	initConfigDir.Do(func() {
		configDir = os.Getenv(EnvOverrideConfigDir)
		if configDir == "" {
			configDir = filepath.Join(getHomeDir(), configFileDir)
		}
	})
	return configDir
}

// SetDir sets the directory the configuration file is stored in
func SetDir(dir string) {
	// trigger the sync.Once to synchronise with Dir()
	initConfigDir.Do(func() {})
	configDir = filepath.Clean(dir)
}

// Load reads the configuration file ([ConfigFileName]) from the given directory.
// If no directory is given, [Dir] is used. Defaults and environment
// overrides are applied to the result.
func Load(dir string) (*configfile.ConfigFile, error) {
	if dir == "" {
		dir = Dir()
	}

	filename := filepath.Join(dir, ConfigFileName)
	cfg := configfile.New(filename)

	file, err := os.Open(filename)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, errors.Wrap(err, filename)
	default:
		defer file.Close()
		if err := cfg.LoadFromReader(file); err != nil {
			return cfg, errors.Wrap(err, filename)
		}
	}

	applyEnv(cfg)
	cfg.SetDefaults()

	return cfg, nil
}

func applyEnv(cfg *configfile.ConfigFile) {
	if v := os.Getenv(EnvOverrideBinDir); v != "" {
		cfg.BinDir = v
	}
	if v := os.Getenv(EnvOverrideCacheDir); v != "" {
		cfg.CacheDir = v
	}
}

// LoadDefaultConfigFile attempts to load the default config file and returns
// a reference to the ConfigFile struct. If errOut is not nil, a warning is
// printed to it when the file cannot be loaded.
func LoadDefaultConfigFile(errOut io.Writer) *configfile.ConfigFile {
	cfg, err := Load(Dir())
	if err != nil && errOut != nil {
		_, _ = fmt.Fprintln(errOut, "WARNING: Error", err)
	}
	return cfg
}
