package configfile

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"formula/pkg/platform"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultGenerator   = "formula"
	DefaultConcurrency = 4
)

// ConfigFile ~/.formula/config.json file info
type ConfigFile struct {
	Filename    string   `json:"-"` // Note: for internal use only
	BinDir      string   `json:"binDir,omitempty"`
	CacheDir    string   `json:"cacheDir,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	Generator   string   `json:"generator,omitempty"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// New initializes an empty configuration file for the given filename 'fn'
func New(fn string) *ConfigFile {
	return &ConfigFile{
		Filename: fn,
	}
}

// LoadFromReader reads the configuration data given and populates the
// receiver object
func (configFile *ConfigFile) LoadFromReader(configData io.Reader) error {
	if err := json.NewDecoder(configData).Decode(configFile); err != nil && !errors.Is(err, io.EOF) {
		return err
	}

	if _, err := platform.ParseList(configFile.Platforms); err != nil {
		return errors.Wrap(err, "invalid platforms")
	}

	return nil
}

// SetDefaults fills every unset field with its default value.
func (configFile *ConfigFile) SetDefaults() {
	if configFile.BinDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			configFile.BinDir = filepath.Join(home, ".local", "bin")
		}
	}
	if configFile.CacheDir == "" {
		if cache, err := os.UserCacheDir(); err == nil {
			configFile.CacheDir = filepath.Join(cache, "formula")
		} else {
			configFile.CacheDir = filepath.Join(os.TempDir(), "formula-cache")
		}
	}
	if len(configFile.Platforms) == 0 {
		for _, p := range platform.DefaultMatrix() {
			configFile.Platforms = append(configFile.Platforms, p.String())
		}
	}
	if configFile.Generator == "" {
		configFile.Generator = DefaultGenerator
	}
	if configFile.Concurrency <= 0 {
		configFile.Concurrency = DefaultConcurrency
	}
}

// Matrix returns the supported platform matrix.
func (configFile *ConfigFile) Matrix() ([]platform.Platform, error) {
	if len(configFile.Platforms) == 0 {
		return platform.DefaultMatrix(), nil
	}
	return platform.ParseList(configFile.Platforms)
}

// ConfigDir returns the directory holding the config file.
func (configFile *ConfigFile) ConfigDir() string {
	return filepath.Dir(configFile.Filename)
}

// SaveToWriter encodes and writes out the configuration to the given
// writer
func (configFile *ConfigFile) SaveToWriter(writer io.Writer) error {
	data, err := json.MarshalIndent(configFile, "", "\t")
	if err != nil {
		return err
	}
	_, err = writer.Write(data)
	return err
}

// Save encodes and writes out the configuration
func (configFile *ConfigFile) Save() (retErr error) {
	if configFile.Filename == "" {
		return errors.Errorf("Can't save config with empty filename")
	}

	dir := filepath.Dir(configFile.Filename)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	temp, err := os.CreateTemp(dir, filepath.Base(configFile.Filename))
	if err != nil {
		return err
	}
	defer func() {
		temp.Close()
		if retErr != nil {
			if err := os.Remove(temp.Name()); err != nil {
				logrus.WithError(err).WithField("file", temp.Name()).Debug("Error cleaning up temp file")
			}
		}
	}()

	err = configFile.SaveToWriter(temp)
	if err != nil {
		return err
	}

	if err := temp.Close(); err != nil {
		return errors.Wrap(err, "error closing temp file")
	}

	// Handle situation where the configfile is a symlink
	cfgFile := configFile.Filename
	if f, err := os.Readlink(cfgFile); err == nil {
		cfgFile = f
	}

	// Try copying the current config file (if any) ownership and permissions
	copyFilePermissions(cfgFile, temp.Name())
	return os.Rename(temp.Name(), cfgFile)
}

// GetFilename returns the file name that this config file is based on.
func (configFile *ConfigFile) GetFilename() string {
	return configFile.Filename
}
