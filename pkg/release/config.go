package release

import (
	"os"
	"strings"

	"formula/pkg/platform"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the release configuration looked up in the
// working directory.
const DefaultConfigFile = ".formula.yaml"

const (
	DefaultArchiveTemplate = "{{ .Name }}_{{ .Os }}_{{ .Arch }}.tar.gz"
	DefaultURLTemplate     = "https://github.com/{{ .Repository }}/releases/download/v{{ .Version }}/{{ .Artifact }}"
)

// Config describes how the artifacts of a release are named and where
// they are published.
//
// Example:
//
//	name: link-patrol
//	desc: Detect dead URLs in markdown files
//	homepage: https://github.com/rednafi/link-patrol
//	repository: rednafi/link-patrol
//	binaries: [link-patrol]
type Config struct {
	Name            string   `yaml:"name"`
	Desc            string   `yaml:"desc"`
	Homepage        string   `yaml:"homepage"`
	License         string   `yaml:"license,omitempty"`
	Repository      string   `yaml:"repository,omitempty"`
	URLTemplate     string   `yaml:"url_template,omitempty"`
	ArchiveTemplate string   `yaml:"archive_template,omitempty"`
	Binaries        []string `yaml:"binaries,omitempty"`
	Platforms       []string `yaml:"platforms,omitempty"`

	// Bits64 lists the platforms whose rule also checks the CPU word
	// size, e.g. linux/arm64 becomes arm? && is_64_bit?.
	Bits64 []string `yaml:"bits64,omitempty"`
}

// LoadConfig reads a release configuration and applies defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Errorf("%s: release config not found", path)
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// SetDefaults fills every unset field with its default.
func (c *Config) SetDefaults() {
	if c.ArchiveTemplate == "" {
		c.ArchiveTemplate = DefaultArchiveTemplate
	}
	if c.URLTemplate == "" {
		c.URLTemplate = DefaultURLTemplate
	}
	if len(c.Binaries) == 0 && c.Name != "" {
		c.Binaries = []string{c.Name}
	}
	if len(c.Platforms) == 0 {
		for _, p := range platform.DefaultMatrix() {
			c.Platforms = append(c.Platforms, p.String())
		}
	}
	if c.Bits64 == nil {
		c.Bits64 = []string{"linux/arm64"}
	}
	if c.Homepage == "" && c.Repository != "" {
		c.Homepage = "https://github.com/" + c.Repository
	}
}

func (c *Config) validate() error {
	if c.Name == "" {
		return errors.New("release config: name is required")
	}
	if strings.Contains(c.URLTemplate, "{{ .Repository }}") && c.Repository == "" {
		return errors.New("release config: repository is required by the url template")
	}
	return nil
}
