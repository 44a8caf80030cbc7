package formula

import (
	"bufio"
	"io"
	"strings"

	"formula/pkg/descriptor"
	"formula/pkg/platform"
)

// RenderOptions controls formula output.
type RenderOptions struct {
	// Generator is the tool named in the "DO NOT EDIT" header.
	Generator string
}

type rubyWriter struct {
	w   *bufio.Writer
	err error
}

func (rw *rubyWriter) line(indent int, parts ...string) {
	if rw.err != nil {
		return
	}
	if len(parts) > 0 {
		_, rw.err = rw.w.WriteString(strings.Repeat("  ", indent) + strings.Join(parts, " "))
		if rw.err != nil {
			return
		}
	}
	rw.err = rw.w.WriteByte('\n')
}

// Render writes d as a Homebrew formula. macOS rules are emitted before
// Linux rules and each group keeps the descriptor order.
func Render(w io.Writer, d descriptor.Descriptor, opts RenderOptions) error {
	generator := opts.Generator
	if generator == "" {
		generator = DefaultGenerator
	}

	rw := &rubyWriter{w: bufio.NewWriter(w)}

	rw.line(0, "# typed: false")
	rw.line(0, "# frozen_string_literal: true")
	rw.line(0)
	rw.line(0, "# This file was generated by "+generator+". DO NOT EDIT.")
	rw.line(0, "class", ClassName(d.Name), "<", "Formula")
	rw.line(1, "desc", quote(d.Desc))
	rw.line(1, "homepage", quote(d.Homepage))
	rw.line(1, "version", quote(d.Version))
	if d.License != "" {
		rw.line(1, "license", quote(d.License))
	}

	for _, osName := range []string{platform.OSDarwin, platform.OSLinux} {
		var rules []descriptor.Rule
		for _, r := range d.Rules {
			if r.Platform.OS == osName {
				rules = append(rules, r)
			}
		}
		if len(rules) == 0 {
			continue
		}

		rw.line(0)
		rw.line(1, osBlock(osName), "do")
		for _, r := range rules {
			renderRule(rw, r)
		}
		rw.line(1, "end")
	}

	rw.line(0, "end")

	if rw.err != nil {
		return rw.err
	}
	return rw.w.Flush()
}

func renderRule(rw *rubyWriter, r descriptor.Rule) {
	rw.line(2, "if", condition(r.Platform))
	rw.line(3, "url", quote(r.URL))
	rw.line(3, "sha256", quote(r.SHA256))
	rw.line(0)
	rw.line(3, "def", "install")
	for _, bin := range r.Install.Bin {
		rw.line(4, "bin.install", quote(bin))
	}
	rw.line(3, "end")
	rw.line(2, "end")
}

// RenderString is a convenience wrapper around Render.
func RenderString(d descriptor.Descriptor, opts RenderOptions) (string, error) {
	var b strings.Builder
	if err := Render(&b, d, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}
