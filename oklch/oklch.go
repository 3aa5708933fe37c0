// Package oklch converts OKLCH colors to display ready sRGB.
package oklch

import (
	"errors"
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrNotFinite is returned when conversion input contains NaN or infinity.
var ErrNotFinite = errors.New("color coordinates are not finite numbers")

// Value is a normalized OKLCH color.
type Value struct {
	L float64 `yaml:"l" json:"l"` // lightness [0, 1]
	C float64 `yaml:"c" json:"c"` // chroma, >= 0
	H float64 `yaml:"h" json:"h"` // hue degrees [0, 360)
	A float64 `yaml:"a" json:"a"` // alpha [0, 1]
}

func (v Value) String() string {
	if v.A == 1 {
		return fmt.Sprintf("oklch(%g %g %g)", v.L, v.C, v.H)
	}
	return fmt.Sprintf("oklch(%g %g %g / %g)", v.L, v.C, v.H, v.A)
}

// RGBA is gamma encoded sRGB, every channel in [0, 1].
type RGBA struct {
	R float64 `yaml:"r" json:"r"`
	G float64 `yaml:"g" json:"g"`
	B float64 `yaml:"b" json:"b"`
	A float64 `yaml:"a" json:"a"`
}

// Hex returns "#rrggbb", alpha is not represented.
func (c RGBA) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}

// ToRGB converts OKLCH to clamped sRGB. Out of gamut colors are clipped per
// channel, no gamut mapping is performed.
func ToRGB(v Value) (RGBA, error) {
	for _, f := range [...]float64{v.L, v.C, v.H, v.A} {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return RGBA{}, ErrNotFinite
		}
	}

	hr := v.H * math.Pi / 180
	a := v.C * math.Cos(hr)
	b := v.C * math.Sin(hr)

	r, g, bl := oklabToLinearRGB(v.L, a, b)

	return RGBA{
		R: clamp01(linearToSRGB(r)),
		G: clamp01(linearToSRGB(g)),
		B: clamp01(linearToSRGB(bl)),
		A: v.A,
	}, nil
}

// oklabToLinearRGB undoes the OKLab transform: Lab -> LMS' -> LMS -> linear sRGB.
func oklabToLinearRGB(l, a, b float64) (float64, float64, float64) {
	lp := l + 0.3963377774*a + 0.2158037573*b
	mp := l - 0.1055613458*a - 0.0638541728*b
	sp := l - 0.0894841775*a - 1.2914855480*b

	lc := lp * lp * lp
	mc := mp * mp * mp
	sc := sp * sp * sp

	return +4.0767416621*lc - 3.3077115913*mc + 0.2309699292*sc,
		-1.2684380046*lc + 2.6097574011*mc - 0.3413193965*sc,
		-0.0041960863*lc - 0.7034186147*mc + 1.7076147010*sc
}

// linearToSRGB applies the sRGB transfer function. Negative input stays on
// the linear segment and is clipped later.
func linearToSRGB(x float64) float64 {
	if x <= 0.0031308 {
		return 12.92 * x
	}
	return 1.055*math.Pow(x, 1/2.4) - 0.055
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
