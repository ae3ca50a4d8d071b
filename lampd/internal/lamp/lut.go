package lamp

import "math"

// gammaLUT maps linear 8-bit levels to perceptual PWM duty using the
// usual 2.2 display gamma.
var gammaLUT = buildGammaLUT(2.2)

func buildGammaLUT(g float64) [256]byte {
	var lut [256]byte
	for i := range lut {
		lut[i] = byte(math.Round(math.Pow(float64(i)/255, g) * 255))
	}
	return lut
}

// Gamma converts a linear level to its gamma corrected duty.
func Gamma(level byte) byte {
	return gammaLUT[level]
}
