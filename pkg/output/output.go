package output

import (
	"io"

	"github.com/morikuni/aec"
)

type Writer interface {
	io.Writer
	IsColorEnabled() bool
	WriteString(s string) (int, error)
}

type Output struct {
	out Writer
	err Writer
}

func New(out, err Writer) *Output {
	return &Output{
		out: out,
		err: err,
	}
}

type Text struct {
	Plain string
	Fancy string
}

// Styled returns a Text whose fancy form is s with the given styles.
func Styled(s string, styles ...aec.ANSI) Text {
	t := Text{Plain: s, Fancy: s}
	if len(styles) == 0 {
		return t
	}
	combined := styles[0]
	for _, next := range styles[1:] {
		combined = combined.With(next)
	}
	t.Fancy = combined.Apply(s)
	return t
}

// Join concatenates texts with sep in both forms.
func Join(sep string, texts ...Text) Text {
	var out Text
	for i, t := range texts {
		if i > 0 {
			out.Plain += sep
			out.Fancy += sep
		}
		out.Plain += t.Plain
		out.Fancy += t.Fancy
	}
	return out
}

// For picks the form matching the color setting of w.
func (t Text) For(w Writer) string {
	if w.IsColorEnabled() {
		return t.Fancy
	}
	return t.Plain
}

// Header prints the "formula <command> v<version>" banner.
func (o *Output) Header(command, version string) {
	o.Prettyln(Join(" ",
		Styled("formula "+command, aec.Bold),
		Styled("v"+version, aec.LightBlackF),
	))
}

func (o *Output) Prettyln(t Text) {
	_, _ = o.out.WriteString(t.For(o.out) + "\n")
}

func (o *Output) PrettyErrorln(t Text) {
	_, _ = o.err.WriteString(t.For(o.err) + "\n")
}

func (o *Output) Write(s string) {
	_, _ = o.out.WriteString(s)
}
