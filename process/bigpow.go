package process

import "math/big"

// precisionBits is the working precision for the extended-precision power
// helper below. 200 bits (~60 decimal digits) comfortably preserves the
// sixth-decimal-place fidelity the bonding/alignment yield fixtures require
// even at exponents in the tens of thousands, where repeated float64
// multiplication would drift.
const precisionBits = 200

// powBig computes base**exp for a non-negative integer exponent using
// big.Float exponentiation by squaring, then rounds back to float64. A
// plain float64 loop (or math.Pow, which also degrades for very large
// integer exponents) loses precision exactly in the regime this is used
// for: a yield very close to 1 raised to a bond/pad count in the
// thousands.
func powBig(base float64, exp int) float64 {
	if exp == 0 {
		return 1
	}
	if exp < 0 {
		panic("process: powBig called with negative exponent")
	}
	result := new(big.Float).SetPrec(precisionBits).SetFloat64(1)
	cur := new(big.Float).SetPrec(precisionBits).SetFloat64(base)
	e := exp
	for e > 0 {
		if e&1 == 1 {
			result.Mul(result, cur)
		}
		cur.Mul(cur, cur)
		e >>= 1
	}
	f, _ := result.Float64()
	return f
}
