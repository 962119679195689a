// Package precision converts between the legacy store's feet text notation
// and numbers, and between pixel and real-world units.
//
// The store writes measurements either as plain decimals ("123.45") or as
// mixed fractions ("123 1/2"). Parsing is tolerant: anything unparseable
// degrades to 0 rather than an error, matching how the external system
// treats bad data.
package precision

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PixelsPerFoot is the fixed drawing scale of the legacy store.
const PixelsPerFoot = 5.0

// tenthsFactor refines the scale for by-tenths legacy drawings.
const tenthsFactor = 10.0

// ParseFeet parses legacy feet text: either a plain decimal or a mixed
// fraction like "123 1/2". Unparseable input yields 0.
func ParseFeet(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}

	fields := strings.Fields(text)
	if len(fields) == 2 && strings.Contains(fields[1], "/") {
		whole, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return 0
		}
		frac, ok := parseFraction(fields[1])
		if !ok {
			return 0
		}
		// The sign comes from the text, not the parsed value: "-0 1/2"
		// parses its whole part to negative zero, which is not < 0.
		if strings.HasPrefix(fields[0], "-") {
			return whole - frac
		}
		return whole + frac
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFraction(text string) (float64, bool) {
	num, den, ok := strings.Cut(text, "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// FormatFeet renders a number in legacy feet text. When useFraction is set,
// values whose fractional part is exactly a half or quarter render as a mixed
// fraction ("12 1/2"); everything else falls back to decimal text. The store
// recognizes only quarter granularity, so the fallback is deliberately lossy
// toward decimals rather than rounding to a wrong fraction.
func FormatFeet(value float64, useFraction bool) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', -1, 64)
	}

	if useFraction {
		whole, frac := math.Modf(math.Abs(value))
		sign := ""
		if value < 0 {
			sign = "-"
		}
		switch frac {
		case 0.25:
			return fmt.Sprintf("%s%d 1/4", sign, int64(whole))
		case 0.5:
			return fmt.Sprintf("%s%d 1/2", sign, int64(whole))
		case 0.75:
			return fmt.Sprintf("%s%d 3/4", sign, int64(whole))
		case 0:
			return fmt.Sprintf("%s%d", sign, int64(whole))
		}
	}

	return strconv.FormatFloat(value, 'f', -1, 64)
}

// PixelsToFeet converts drawing pixels to feet at the fixed store scale.
// byTenths selects the finer scale used by by-tenths legacy drawings.
func PixelsToFeet(pixels float64, byTenths bool) float64 {
	return pixels / ratio(byTenths)
}

// FeetToPixels converts feet to drawing pixels, inverse of PixelsToFeet.
func FeetToPixels(feet float64, byTenths bool) float64 {
	return feet * ratio(byTenths)
}

func ratio(byTenths bool) float64 {
	if byTenths {
		return PixelsPerFoot * tenthsFactor
	}
	return PixelsPerFoot
}
