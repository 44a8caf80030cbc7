package formula

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"formula/pkg/descriptor"
	"formula/pkg/platform"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	classLineRegex = regexp.MustCompile(`^class\s+([A-Z][A-Za-z0-9_]*)\s*<\s*Formula$`)
	blockOpenRegex = regexp.MustCompile(`(^|\s)do(\s*\|[^|]*\|)?$`)
	nestedRegex    = regexp.MustCompile(`^(if|unless|case|begin|while|until|def)\b`)
)

// SyntaxError reports the line a formula could not be parsed at.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

type frameKind int

const (
	frameClass frameKind = iota
	frameOS
	frameCond
	frameInstall
)

type frame struct {
	kind frameKind
	pred platform.Predicate
}

type parser struct {
	d       descriptor.Descriptor
	class   string
	frames  []frame
	rule    *descriptor.Rule
	ruleAt  int
	skip    int
	done    bool
	lineNum int
}

// Parse reads a formula written in the layout Render produces. The
// package name is derived from the class name.
func Parse(r io.Reader) (descriptor.Descriptor, error) {
	p := &parser{}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		p.lineNum++
		if err := p.parseLine(strings.TrimSpace(scanner.Text())); err != nil {
			return descriptor.Descriptor{}, err
		}
	}
	if err := scanner.Err(); err != nil {
		return descriptor.Descriptor{}, errors.Wrap(err, "failed to read formula")
	}

	switch {
	case p.class == "":
		return descriptor.Descriptor{}, p.errorf("no formula class found")
	case !p.done:
		return descriptor.Descriptor{}, p.errorf("unexpected end of file, missing 'end'")
	}

	p.d.Name = NameFromClass(p.class)
	return p.d, nil
}

// ParseFile parses the formula at path. When the file name matches the
// class name it is used as the package name.
func ParseFile(path string) (descriptor.Descriptor, error) {
	f, err := os.Open(path)
	if err != nil {
		return descriptor.Descriptor{}, err
	}
	defer f.Close()

	d, err := Parse(f)
	if err != nil {
		return descriptor.Descriptor{}, errors.Wrap(err, filepath.Base(path))
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if ClassName(name) == ClassName(d.Name) {
		d.Name = name
	}

	return d, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Line: p.lineNum, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) top() *frame {
	if len(p.frames) == 0 {
		return nil
	}
	return &p.frames[len(p.frames)-1]
}

func (p *parser) parseLine(line string) error {
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	if p.skip > 0 {
		switch {
		case line == "end":
			p.skip--
		case blockOpenRegex.MatchString(line), nestedRegex.MatchString(line):
			p.skip++
		}
		return nil
	}

	if p.done {
		return p.errorf("unexpected content after class end: %q", line)
	}

	if line == "end" {
		return p.closeFrame()
	}

	top := p.top()
	if top == nil {
		m := classLineRegex.FindStringSubmatch(line)
		if m == nil {
			return p.errorf("expected 'class <Name> < Formula', got %q", line)
		}
		p.class = m[1]
		p.frames = append(p.frames, frame{kind: frameClass})
		return nil
	}

	switch top.kind {
	case frameClass:
		return p.parseClassLine(line)
	case frameOS, frameCond:
		return p.parseRuleLine(line, *top)
	case frameInstall:
		return p.parseInstallLine(line)
	}

	return nil
}

func (p *parser) parseClassLine(line string) error {
	keyword, rest, _ := strings.Cut(line, " ")

	switch keyword {
	case "desc":
		return p.stringField(rest, &p.d.Desc)
	case "homepage":
		return p.stringField(rest, &p.d.Homepage)
	case "version":
		return p.stringField(rest, &p.d.Version)
	case "license":
		return p.stringField(rest, &p.d.License)
	case blockMacOS, blockLinux:
		if strings.TrimSpace(rest) != "do" {
			return p.errorf("expected '%s do'", keyword)
		}
		osName := platform.OSLinux
		if keyword == blockMacOS {
			osName = platform.OSDarwin
		}
		p.frames = append(p.frames, frame{kind: frameOS, pred: platform.Predicate{OS: osName}})
		return nil
	}

	if blockOpenRegex.MatchString(line) || nestedRegex.MatchString(line) {
		logrus.WithField("line", p.lineNum).Debugf("skipping unsupported block %q", line)
		p.skip = 1
		return nil
	}

	logrus.WithField("line", p.lineNum).Debugf("ignoring unsupported statement %q", line)
	return nil
}

func (p *parser) parseRuleLine(line string, top frame) error {
	keyword, rest, _ := strings.Cut(line, " ")

	switch {
	case keyword == "if":
		if p.rule != nil {
			return p.errorf("nested condition inside an artifact block")
		}
		pred, err := parseCondition(top.pred, strings.TrimSpace(rest))
		if err != nil {
			return p.errorf("%s", err)
		}
		p.frames = append(p.frames, frame{kind: frameCond, pred: pred})
		return nil

	case line == "on_intel do", line == "on_arm do":
		if p.rule != nil {
			return p.errorf("nested condition inside an artifact block")
		}
		pred := top.pred
		pred.CPU = platform.CPUIntel
		if keyword == "on_arm" {
			pred.CPU = platform.CPUArm
		}
		p.frames = append(p.frames, frame{kind: frameCond, pred: pred})
		return nil

	case keyword == "url":
		if p.rule != nil {
			return p.errorf("duplicate url")
		}
		if top.pred.CPU == "" {
			return p.errorf("url outside of a cpu condition")
		}
		p.rule = &descriptor.Rule{Platform: top.pred}
		p.ruleAt = len(p.frames)
		return p.stringField(rest, &p.rule.URL)

	case keyword == "sha256":
		if p.rule == nil {
			return p.errorf("sha256 before url")
		}
		return p.stringField(rest, &p.rule.SHA256)

	case line == "def install":
		if p.rule == nil {
			return p.errorf("install before url")
		}
		p.frames = append(p.frames, frame{kind: frameInstall, pred: top.pred})
		return nil
	}

	return p.errorf("unexpected statement %q", line)
}

func (p *parser) parseInstallLine(line string) error {
	rest, ok := strings.CutPrefix(line, "bin.install ")
	if !ok {
		return p.errorf("unsupported install statement %q", line)
	}

	for {
		s, tail, err := unquote(strings.TrimSpace(rest))
		if err != nil {
			return p.errorf("bin.install: %s", err)
		}
		p.rule.Install.Bin = append(p.rule.Install.Bin, s)

		tail = strings.TrimSpace(tail)
		if tail == "" {
			return nil
		}
		if rest, ok = strings.CutPrefix(tail, ","); !ok {
			return p.errorf("bin.install: unexpected %q", tail)
		}
	}
}

func (p *parser) closeFrame() error {
	if len(p.frames) == 0 {
		return p.errorf("unexpected 'end'")
	}

	closed := p.frames[len(p.frames)-1]
	p.frames = p.frames[:len(p.frames)-1]

	if p.rule != nil && len(p.frames) < p.ruleAt {
		if p.rule.SHA256 == "" {
			return p.errorf("artifact %s has no sha256", p.rule.URL)
		}
		p.d.Rules = append(p.d.Rules, *p.rule)
		p.rule = nil
	}

	if closed.kind == frameClass {
		p.done = true
	}
	return nil
}

func (p *parser) stringField(rest string, dst *string) error {
	s, tail, err := unquote(strings.TrimSpace(rest))
	if err != nil {
		return p.errorf("%s", err)
	}
	if tail = strings.TrimSpace(tail); tail != "" && !strings.HasPrefix(tail, "#") {
		return p.errorf("unexpected %q after string", tail)
	}
	*dst = s
	return nil
}
