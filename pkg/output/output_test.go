package output

import (
	"bytes"
	"testing"

	"github.com/morikuni/aec"
	"github.com/stretchr/testify/assert"
)

type bufWriter struct {
	bytes.Buffer
	color bool
}

func (b *bufWriter) IsColorEnabled() bool { return b.color }

func TestPrettyln(t *testing.T) {
	plain := &bufWriter{}
	fancy := &bufWriter{color: true}

	o := New(plain, fancy)
	txt := Join(" ", Styled("ok", aec.GreenF), Styled("done"))

	o.Prettyln(txt)
	o.PrettyErrorln(txt)

	assert.Equal(t, "ok done\n", plain.String())
	assert.Equal(t, aec.GreenF.Apply("ok")+" done\n", fancy.String())
}

func TestHeader(t *testing.T) {
	out := &bufWriter{}
	New(out, out).Header("install", "1.0.0")
	assert.Equal(t, "formula install v1.0.0\n", out.String())
}
