package lux

import "math"

// sRGB transfer function. The develop pipeline works entirely in linear
// light; these conversions are used only at the import and output boundaries.

// LinearToSRGB applies the sRGB opto-electronic transfer function to a
// linear value. Input outside [0, 1] is not clamped.
func LinearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1/2.4) - 0.055
}

// SRGBToLinear inverts the sRGB transfer function.
func SRGBToLinear(v float64) float64 {
	if v <= 0.04045 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
