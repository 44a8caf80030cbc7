package command

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"formula/pkg/descriptor"
	"formula/pkg/formula"
	"formula/pkg/platform"

	"github.com/pkg/errors"
)

// LoadDescriptor reads a descriptor from a Ruby formula (.rb) or a JSON or
// YAML descriptor file, and validates it.
func LoadDescriptor(file string) (descriptor.Descriptor, error) {
	if file == "" {
		file = descriptor.DefaultFile
	}

	if !isFormulaFile(file) {
		d, err := descriptor.ReadAndValidate(file)
		if err != nil {
			return descriptor.Descriptor{}, err
		}
		return *d, nil
	}

	d, err := formula.ParseFile(file)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	return d, validate(d, filepath.Base(file))
}

// FetchDescriptor is LoadDescriptor for sources that may also be http(s)
// URLs, which are downloaded with the cli download client.
func FetchDescriptor(ctx context.Context, cli Cli, src string) (descriptor.Descriptor, error) {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return LoadDescriptor(src)
	}

	client, err := cli.DownloadClient()
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	body, _, err := client.Download(ctx, src)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	defer body.Close()

	name := path.Base(u.Path)

	var d descriptor.Descriptor
	if isFormulaFile(name) {
		d, err = formula.Parse(body)
		if err == nil && formula.ClassName(strings.TrimSuffix(name, ".rb")) == formula.ClassName(d.Name) {
			d.Name = strings.TrimSuffix(name, ".rb")
		}
	} else {
		var dp *descriptor.Descriptor
		if dp, err = descriptor.Decode(body, descriptor.FormatFromPath(name)); err == nil {
			d = *dp
		}
	}
	if err != nil {
		return descriptor.Descriptor{}, errors.Wrap(err, src)
	}

	return d, validate(d, src)
}

func isFormulaFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".rb")
}

func validate(d descriptor.Descriptor, source string) error {
	v, err := descriptor.NewValidator()
	if err != nil {
		return err
	}
	if err := descriptor.Validate(v, d); err != nil {
		return errors.Wrap(err, source)
	}
	return nil
}

// TargetPlatform returns the platform named by flag, or the host platform
// when flag is empty.
func TargetPlatform(flag string) (platform.Platform, error) {
	if flag == "" {
		return platform.Host(), nil
	}
	return platform.Parse(flag)
}

// WriteOutput calls write with stdout when path is empty or "-", and with
// a newly created file otherwise.
func WriteOutput(cli Cli, file string, write func(w io.Writer) error) error {
	if file == "" || file == "-" {
		return write(cli.Out())
	}

	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
