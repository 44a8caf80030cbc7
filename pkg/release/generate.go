// Package release builds release descriptors from a release
// configuration and the checksums file published with the artifacts.
package release

import (
	"sort"
	"strings"
	"text/template"

	"formula/pkg/descriptor"
	"formula/pkg/platform"
	"formula/pkg/sumfile"

	"github.com/pkg/errors"
)

var (
	archOS = map[string]string{
		platform.OSDarwin: "Darwin",
		platform.OSLinux:  "Linux",
	}
	archNames = map[string]string{
		"amd64": "x86_64",
		"arm64": "arm64",
		"386":   "i386",
		"arm":   "armv6",
	}
	osOrder   = map[string]int{platform.OSDarwin: 0, platform.OSLinux: 1}
	archOrder = map[string]map[string]int{
		platform.OSDarwin: {"arm64": 0, "amd64": 1, "arm": 2, "386": 3},
		platform.OSLinux:  {"amd64": 0, "arm64": 1, "386": 2, "arm": 3},
	}
)

// TemplateData is passed to the archive and url templates.
type TemplateData struct {
	Name       string
	Version    string
	Os         string
	Arch       string
	Goos       string
	Goarch     string
	Repository string
	Artifact   string
}

// Generate builds the descriptor of version from cfg, taking every
// artifact checksum from sums.
func Generate(cfg Config, version string, sums *sumfile.SumDB) (descriptor.Descriptor, error) {
	cfg.SetDefaults()
	if err := cfg.validate(); err != nil {
		return descriptor.Descriptor{}, err
	}

	version = strings.TrimPrefix(strings.TrimPrefix(version, "v"), "V")
	if version == "" {
		return descriptor.Descriptor{}, errors.New("version is required")
	}

	archiveTmpl, err := template.New("archive").Option("missingkey=error").Parse(cfg.ArchiveTemplate)
	if err != nil {
		return descriptor.Descriptor{}, errors.Wrap(err, "invalid archive template")
	}
	urlTmpl, err := template.New("url").Option("missingkey=error").Parse(cfg.URLTemplate)
	if err != nil {
		return descriptor.Descriptor{}, errors.Wrap(err, "invalid url template")
	}

	platforms, err := platform.ParseList(cfg.Platforms)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	sortPlatforms(platforms)

	d := descriptor.Descriptor{
		Name:     cfg.Name,
		Desc:     cfg.Desc,
		Homepage: cfg.Homepage,
		Version:  version,
		License:  cfg.License,
	}

	for _, p := range platforms {
		data := TemplateData{
			Name:       cfg.Name,
			Version:    version,
			Os:         archOS[p.OS],
			Arch:       archNames[p.Arch],
			Goos:       p.OS,
			Goarch:     p.Arch,
			Repository: cfg.Repository,
		}

		if data.Artifact, err = execute(archiveTmpl, data); err != nil {
			return descriptor.Descriptor{}, err
		}

		url, err := execute(urlTmpl, data)
		if err != nil {
			return descriptor.Descriptor{}, err
		}

		hash, ok := sums.Get(data.Artifact)
		if !ok {
			return descriptor.Descriptor{}, errors.Errorf("no checksum for artifact %s", data.Artifact)
		}

		d.Rules = append(d.Rules, descriptor.Rule{
			Platform: platform.ForPlatform(p, pinBits(cfg, platforms, p)),
			URL:      url,
			SHA256:   hash,
			Install:  descriptor.Install{Bin: append([]string(nil), cfg.Binaries...)},
		})
	}

	if err := descriptor.CheckExclusive(d); err != nil {
		return descriptor.Descriptor{}, err
	}

	return d, nil
}

// pinBits reports whether the rule for p checks the CPU word size. It
// does when configured to, or when another platform of the same CPU
// family would otherwise select the same machines.
func pinBits(cfg Config, platforms []platform.Platform, p platform.Platform) bool {
	if contains(cfg.Bits64, p.String()) {
		return true
	}
	for _, other := range platforms {
		if other != p && other.OS == p.OS && other.CPU() == p.CPU() {
			return true
		}
	}
	return false
}

func execute(t *template.Template, data TemplateData) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", errors.Wrapf(err, "failed to execute %s template", t.Name())
	}
	return b.String(), nil
}

// sortPlatforms orders platforms the way GoReleaser lays out formula
// blocks: macOS first with arm64 ahead of amd64, then Linux.
func sortPlatforms(list []platform.Platform) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.OS != b.OS {
			return osOrder[a.OS] < osOrder[b.OS]
		}
		return archOrder[a.OS][a.Arch] < archOrder[b.OS][b.Arch]
	})
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
