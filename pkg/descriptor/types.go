package descriptor

import (
	"formula/pkg/platform"
)

// Install is the fixed installation action of a rule: every listed
// executable is copied into the binary directory.
//
// Example:
//
//	"install": {
//	    "bin": ["link-patrol"]
//	}
type Install struct {
	Bin []string `json:"bin" yaml:"bin" validate:"required,min=1,dive,formula_bin"`
}

// Rule maps one platform predicate to the artifact built for it.
type Rule struct {
	Platform platform.Predicate `json:"platform" yaml:"platform" validate:"required"`
	URL      string             `json:"url" yaml:"url" validate:"required,formula_http_url,max=2048"`
	SHA256   string             `json:"sha256" yaml:"sha256" validate:"required,formula_sha256"`
	Install  Install            `json:"install" yaml:"install" validate:"required"`
}

// Descriptor is the release descriptor of a prebuilt binary package.
// A descriptor is produced once per release and replaced wholesale by
// the next one.
type Descriptor struct {
	Name     string `json:"name" yaml:"name" validate:"required,formula_name"`
	Desc     string `json:"desc" yaml:"desc" validate:"required,min=3,max=512"`
	Homepage string `json:"homepage" yaml:"homepage" validate:"required,formula_http_url,max=512"`
	Version  string `json:"version" yaml:"version" validate:"required,formula_version"`
	License  string `json:"license,omitempty" yaml:"license,omitempty" validate:"omitempty,min=2,max=100"`
	Rules    []Rule `json:"rules" yaml:"rules" validate:"required,min=1,dive"`
}

// Description of descriptor fields.
var FieldDescriptions = map[string]string{
	"Name":     "must contain only lowercase letters, numbers, and single '-', '_' or '.' separators. (required)",
	"Desc":     "must be between 3 and 512 characters. (required)",
	"Homepage": "must be a valid http(s) url. (required)",
	"Version":  "must be a semantic version without a leading 'v', e.g. 0.4 or 1.2.3. (required)",
	"License":  "must be between 2 and 100 characters. (optional)",
	"Rules":    "must contain at least one platform rule. (required)",
	"OS":       "must be one of: 'darwin', 'linux'. (required)",
	"CPU":      "must be one of: 'intel', 'arm'. (required)",
	"Bits":     "must be 0 (any), 32 or 64. (optional)",
	"URL":      "must be a valid http(s) url. (required)",
	"SHA256":   "must be a 64 character lowercase hex sha256 checksum. (required)",
	"Bin":      "must list at least one executable name without path separators. (required)",
}

// Binaries returns the executable names installed by any rule,
// deduplicated and in first-seen order.
func (d Descriptor) Binaries() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.Rules {
		for _, b := range r.Install.Bin {
			if !seen[b] {
				seen[b] = true
				out = append(out, b)
			}
		}
	}
	return out
}

// Clone returns a deep copy of d.
func (d Descriptor) Clone() Descriptor {
	c := d
	if d.Rules != nil {
		c.Rules = make([]Rule, len(d.Rules))
		for i, r := range d.Rules {
			c.Rules[i] = r
			c.Rules[i].Install.Bin = append([]string(nil), r.Install.Bin...)
		}
	}
	return c
}
