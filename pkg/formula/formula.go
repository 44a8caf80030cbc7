// Package formula converts release descriptors to and from Homebrew
// formula files in the layout GoReleaser produces.
package formula

import (
	"strings"
	"unicode"

	"formula/pkg/platform"

	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultGenerator is written into the header of rendered formulas.
const DefaultGenerator = "formula"

// ErrSyntax is returned for formula files that cannot be parsed.
var ErrSyntax = errors.New("formula syntax error")

const (
	condIntel  = "Hardware::CPU.intel?"
	condArm    = "Hardware::CPU.arm?"
	cond64Bit  = "Hardware::CPU.is_64_bit?"
	cond32Bit  = "!Hardware::CPU.is_64_bit?"
	condJoiner = " && "

	blockMacOS = "on_macos"
	blockLinux = "on_linux"
)

// ClassName returns the Ruby class name of a formula, e.g. link-patrol
// becomes LinkPatrol.
func ClassName(name string) string {
	caser := cases.Title(language.Und, cases.NoLower)

	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '-' || r == '_' || r == '.' || r == '@'
	})

	var b strings.Builder
	for _, p := range parts {
		b.WriteString(caser.String(p))
	}
	return b.String()
}

// NameFromClass reverses ClassName for names that use '-' as the only
// separator: LinkPatrol becomes link-patrol.
func NameFromClass(class string) string {
	var b strings.Builder
	for i, r := range class {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('-')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func osBlock(osName string) string {
	if osName == platform.OSDarwin {
		return blockMacOS
	}
	return blockLinux
}

// condition returns the Ruby expression guarding a rule.
func condition(p platform.Predicate) string {
	parts := []string{condIntel}
	if p.CPU == platform.CPUArm {
		parts[0] = condArm
	}

	switch p.Bits {
	case 64:
		parts = append(parts, cond64Bit)
	case 32:
		parts = append(parts, cond32Bit)
	}

	return strings.Join(parts, condJoiner)
}

// parseCondition narrows pred by an if-expression.
func parseCondition(pred platform.Predicate, expr string) (platform.Predicate, error) {
	for _, part := range strings.Split(expr, condJoiner) {
		switch strings.TrimSpace(part) {
		case condIntel:
			pred.CPU = platform.CPUIntel
		case condArm:
			pred.CPU = platform.CPUArm
		case cond64Bit:
			pred.Bits = 64
		case cond32Bit:
			pred.Bits = 32
		default:
			return pred, errors.Errorf("unsupported condition %q", part)
		}
	}

	return pred, nil
}

var rubyEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `#{`, `\#{`, "\n", `\n`, "\t", `\t`, "\r", `\r`)

// quote returns s as a double quoted Ruby string literal.
func quote(s string) string {
	return `"` + rubyEscaper.Replace(s) + `"`
}

// unquote parses a double quoted Ruby string literal from the start of s
// and returns it together with the remaining input.
func unquote(s string) (string, string, error) {
	if !strings.HasPrefix(s, `"`) {
		return "", s, errors.New("expected a double quoted string")
	}

	var b strings.Builder
	for i := 1; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			return b.String(), s[i+1:], nil
		case '\\':
			if i+1 == len(s) {
				return "", s, errors.New("unterminated escape sequence")
			}
			i++
			switch s[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(s[i])
			}
		default:
			b.WriteByte(c)
		}
	}

	return "", s, errors.New("unterminated string")
}
