package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Platform
		wantErr bool
	}{
		{in: "linux/arm64", want: Platform{OS: "linux", Arch: "arm64"}},
		{in: "Darwin/AMD64", want: Platform{OS: "darwin", Arch: "amd64"}},
		{in: " linux/386 ", want: Platform{OS: "linux", Arch: "386"}},
		{in: "linux", wantErr: true},
		{in: "windows/amd64", wantErr: true},
		{in: "linux/riscv64", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlatformCPUAndBits(t *testing.T) {
	assert.Equal(t, CPUIntel, MustParse("linux/amd64").CPU())
	assert.Equal(t, CPUIntel, MustParse("linux/386").CPU())
	assert.Equal(t, CPUArm, MustParse("darwin/arm64").CPU())
	assert.Equal(t, CPUArm, MustParse("linux/arm").CPU())

	assert.Equal(t, 64, MustParse("linux/arm64").Bits())
	assert.Equal(t, 32, MustParse("linux/arm").Bits())
	assert.Equal(t, 32, MustParse("linux/386").Bits())
}

func TestPredicateMatches(t *testing.T) {
	armAny := Predicate{OS: OSLinux, CPU: CPUArm}
	arm64 := Predicate{OS: OSLinux, CPU: CPUArm, Bits: 64}

	assert.True(t, armAny.Matches(MustParse("linux/arm64")))
	assert.True(t, armAny.Matches(MustParse("linux/arm")))
	assert.True(t, arm64.Matches(MustParse("linux/arm64")))
	assert.False(t, arm64.Matches(MustParse("linux/arm")))
	assert.False(t, arm64.Matches(MustParse("darwin/arm64")))
	assert.False(t, armAny.Matches(MustParse("linux/amd64")))
}

func TestPredicateOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Predicate
		want bool
	}{
		{
			name: "same predicate",
			a:    Predicate{OS: OSDarwin, CPU: CPUArm},
			b:    Predicate{OS: OSDarwin, CPU: CPUArm},
			want: true,
		},
		{
			name: "any width overlaps 64-bit",
			a:    Predicate{OS: OSLinux, CPU: CPUArm},
			b:    Predicate{OS: OSLinux, CPU: CPUArm, Bits: 64},
			want: true,
		},
		{
			name: "32 and 64 bit are disjoint",
			a:    Predicate{OS: OSLinux, CPU: CPUArm, Bits: 32},
			b:    Predicate{OS: OSLinux, CPU: CPUArm, Bits: 64},
			want: false,
		},
		{
			name: "different os",
			a:    Predicate{OS: OSLinux, CPU: CPUIntel},
			b:    Predicate{OS: OSDarwin, CPU: CPUIntel},
			want: false,
		},
		{
			name: "different cpu",
			a:    Predicate{OS: OSLinux, CPU: CPUIntel},
			b:    Predicate{OS: OSLinux, CPU: CPUArm},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestForPlatform(t *testing.T) {
	p := MustParse("linux/arm64")
	assert.Equal(t, Predicate{OS: OSLinux, CPU: CPUArm}, ForPlatform(p, false))
	assert.Equal(t, Predicate{OS: OSLinux, CPU: CPUArm, Bits: 64}, ForPlatform(p, true))
}

func TestPredicateString(t *testing.T) {
	assert.Equal(t, "macos/arm", Predicate{OS: OSDarwin, CPU: CPUArm}.String())
	assert.Equal(t, "linux/arm/64-bit", Predicate{OS: OSLinux, CPU: CPUArm, Bits: 64}.String())
}

func TestDefaultMatrixIsDistinct(t *testing.T) {
	seen := map[Platform]bool{}
	for _, p := range DefaultMatrix() {
		assert.False(t, seen[p], "duplicate %s", p)
		seen[p] = true
	}
	assert.Len(t, seen, 4)
}
