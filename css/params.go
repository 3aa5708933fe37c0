package css

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	numparse "github.com/tdewolff/parse/v2/strconv"

	"okvars/oklch"
)

var (
	ErrComponentCount = errors.New("expected exactly three components (L C H)")
	ErrNotNumber      = errors.New("not a number")
	ErrAlphaRange     = errors.New("alpha out of range [0, 1]")
	ErrLightnessRange = errors.New("lightness out of range [0, 1]")
	ErrChromaRange    = errors.New("chroma must not be negative")
)

// ParseParams parses text found between oklch parentheses: "L C H" or
// "L C H / A". Lightness in (1, 100] is taken as percentage, hue is reduced
// to [0, 360).
func ParseParams(params string) (oklch.Value, error) {
	var v oklch.Value

	colorPart, alphaPart, hasAlpha := strings.Cut(strings.TrimSpace(params), "/")

	v.A = 1
	if hasAlpha {
		a, err := parseAlpha(strings.TrimSpace(alphaPart))
		if err != nil {
			return v, invalid(err)
		}
		v.A = a
	}

	parts := strings.Fields(colorPart)
	if len(parts) != 3 {
		return v, invalid(fmt.Errorf("%w, got %d", ErrComponentCount, len(parts)))
	}

	// percent sign on lightness carries no meaning of its own, the value
	// goes through the same normalization as a bare number
	l, err := parseNumber(strings.TrimSuffix(parts[0], "%"))
	if err != nil {
		return v, invalid(fmt.Errorf("lightness: %w", err))
	}
	c, err := parseNumber(parts[1])
	if err != nil {
		return v, invalid(fmt.Errorf("chroma: %w", err))
	}
	h, err := parseNumber(parts[2])
	if err != nil {
		return v, invalid(fmt.Errorf("hue: %w", err))
	}

	if l > 1 && l <= 100 {
		l /= 100
	}
	if l < 0 || l > 1 {
		return v, invalid(ErrLightnessRange)
	}
	if c < 0 {
		return v, invalid(ErrChromaRange)
	}

	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}

	v.L, v.C, v.H = l, c, h
	return v, nil
}

func parseAlpha(s string) (float64, error) {
	var (
		a   float64
		err error
	)
	if p, ok := strings.CutSuffix(s, "%"); ok {
		a, err = parseNumber(strings.TrimSpace(p))
		a /= 100
	} else {
		a, err = parseNumber(s)
	}
	if err != nil {
		return 0, fmt.Errorf("alpha: %w", err)
	}
	if a < 0 || a > 1 {
		return 0, ErrAlphaRange
	}
	return a, nil
}

// parseNumber accepts CSS number syntax only: optional sign, digits with
// optional fraction and exponent. Go specific forms (hex floats, "Inf",
// "NaN") are rejected.
func parseNumber(s string) (float64, error) {
	if _, n := numparse.ParseFloat([]byte(s)); n == 0 || n != len(s) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotNumber, s)
	}
	return f, nil
}

func invalid(err error) error {
	return fmt.Errorf("invalid OKLCH format: %w", err)
}
