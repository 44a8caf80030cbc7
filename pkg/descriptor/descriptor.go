package descriptor

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// DefaultFile is the descriptor file looked up when none is given.
const DefaultFile = "formula.json"

// Format is the serialization of a descriptor file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension. Anything
// that is not .yaml or .yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat parses a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", errors.Errorf("unknown format %q, expected json or yaml", s)
	}
}

// Read reads the descriptor file at path.
func Read(path string) (*Descriptor, error) {
	f, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		return nil, errors.Errorf("%s: descriptor file not found", path)
	case err != nil:
		return nil, err
	}
	defer f.Close()

	d, err := Decode(f, FormatFromPath(path))
	if err != nil {
		return nil, errors.Wrap(err, filepath.Base(path))
	}
	return d, nil
}

// Decode reads a descriptor in the given format from r.
func Decode(r io.Reader, format Format) (*Descriptor, error) {
	var d Descriptor

	switch format {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&d); err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "error parsing descriptor")
		}
	default:
		if err := json.NewDecoder(r).Decode(&d); err != nil && !errors.Is(err, io.EOF) {
			var typeError *json.UnmarshalTypeError
			if errors.As(err, &typeError) {
				return nil, errors.Errorf("invalid value for field %s, expected %s but got %s", typeError.Field, typeError.Type.Name(), typeError.Value)
			}

			return nil, errors.Wrap(err, "error parsing descriptor")
		}
	}

	return &d, nil
}

// Encode writes d to w in the given format.
func Encode(w io.Writer, d Descriptor, format Format) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(d); err != nil {
			return err
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
}

// Write saves d to path, choosing the format from the extension.
func Write(d Descriptor, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, d, FormatFromPath(path)); err != nil {
		return errors.Wrap(err, "failed to encode descriptor")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// ReadAndValidate reads the descriptor at path and validates it.
func ReadAndValidate(path string) (*Descriptor, error) {
	d, err := Read(path)
	if err != nil {
		return nil, err
	}

	v, err := NewValidator()
	if err != nil {
		return nil, err
	}

	if err := Validate(v, *d); err != nil {
		return nil, err
	}

	return d, nil
}
