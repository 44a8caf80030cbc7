package platform

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/pkg/errors"
)

// CPU is the processor family a formula condition is written against.
type CPU string

func (c CPU) String() string {
	return string(c)
}

func (c CPU) Valid() bool {
	switch c {
	case CPUIntel, CPUArm:
		return true
	default:
		return false
	}
}

const (
	CPUIntel CPU = "intel"
	CPUArm   CPU = "arm"

	OSDarwin = "darwin"
	OSLinux  = "linux"
)

var (
	knownOS   = []string{OSDarwin, OSLinux}
	knownArch = []string{"amd64", "arm64", "386", "arm"}
)

// Platform is an operating system and architecture pair using Go's
// GOOS/GOARCH naming.
type Platform struct {
	OS   string `json:"os" yaml:"os"`
	Arch string `json:"arch" yaml:"arch"`
}

// Host returns the platform the binary is running on.
func Host() Platform {
	return Platform{OS: runtime.GOOS, Arch: runtime.GOARCH}
}

// Parse parses an "os/arch" pair such as "linux/arm64".
func Parse(s string) (Platform, error) {
	osName, arch, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return Platform{}, errors.Errorf("invalid platform %q, expected os/arch", s)
	}

	p := Platform{OS: strings.ToLower(osName), Arch: strings.ToLower(arch)}
	if !contains(knownOS, p.OS) {
		return Platform{}, errors.Errorf("unsupported operating system %q", osName)
	}
	if !contains(knownArch, p.Arch) {
		return Platform{}, errors.Errorf("unsupported architecture %q", arch)
	}

	return p, nil
}

// MustParse is like Parse but panics on error.
func MustParse(s string) Platform {
	p, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return p
}

// ParseList parses every entry of list.
func ParseList(list []string) ([]Platform, error) {
	out := make([]Platform, 0, len(list))
	for _, s := range list {
		p, err := Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// CPU returns the processor family of the platform's architecture.
func (p Platform) CPU() CPU {
	switch p.Arch {
	case "arm64", "arm":
		return CPUArm
	default:
		return CPUIntel
	}
}

// Bits returns the word size of the platform's architecture.
func (p Platform) Bits() int {
	switch p.Arch {
	case "386", "arm":
		return 32
	default:
		return 64
	}
}

func (p Platform) String() string {
	return p.OS + "/" + p.Arch
}

// Universe is every platform a predicate can be evaluated against.
func Universe() []Platform {
	var all []Platform
	for _, o := range knownOS {
		for _, a := range knownArch {
			all = append(all, Platform{OS: o, Arch: a})
		}
	}
	return all
}

// DefaultMatrix is the officially supported platform matrix of a
// typical release: macOS and Linux on 64-bit Intel and ARM.
func DefaultMatrix() []Platform {
	return []Platform{
		{OS: OSDarwin, Arch: "arm64"},
		{OS: OSDarwin, Arch: "amd64"},
		{OS: OSLinux, Arch: "amd64"},
		{OS: OSLinux, Arch: "arm64"},
	}
}

// Predicate selects platforms by operating system, CPU family and,
// optionally, word size. Bits of 0 matches any width.
type Predicate struct {
	OS   string `json:"os" yaml:"os" validate:"required,formula_os"`
	CPU  CPU    `json:"cpu" yaml:"cpu" validate:"required,formula_cpu"`
	Bits int    `json:"bits,omitempty" yaml:"bits,omitempty" validate:"formula_bits"`
}

// ForPlatform returns the predicate that selects p. The word size is
// only pinned when withBits is set.
func ForPlatform(p Platform, withBits bool) Predicate {
	pred := Predicate{OS: p.OS, CPU: p.CPU()}
	if withBits {
		pred.Bits = p.Bits()
	}
	return pred
}

// Matches reports whether p satisfies the predicate.
func (pr Predicate) Matches(p Platform) bool {
	if pr.OS != p.OS || pr.CPU != p.CPU() {
		return false
	}
	return pr.Bits == 0 || pr.Bits == p.Bits()
}

// Overlaps reports whether at least one known platform satisfies both
// predicates.
func (pr Predicate) Overlaps(other Predicate) bool {
	for _, p := range Universe() {
		if pr.Matches(p) && other.Matches(p) {
			return true
		}
	}
	return false
}

func (pr Predicate) String() string {
	osName := pr.OS
	if osName == OSDarwin {
		osName = "macos"
	}

	s := fmt.Sprintf("%s/%s", osName, pr.CPU)
	if pr.Bits != 0 {
		s += fmt.Sprintf("/%d-bit", pr.Bits)
	}
	return s
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
