package wire

import (
	"image"
	"strconv"
)

// Fixed is a signed 24.8 fixed-point number, which is how the protocol
// transmits surface-local coordinates and scroll amounts.
type Fixed int32

func FixedInt(v int) Fixed {
	return Fixed(v << 8)
}

func FixedFloat(v float64) Fixed {
	return Fixed(v * 256)
}

// Int rounds f towards negative infinity.
func (f Fixed) Int() int {
	return int(f >> 8)
}

// Frac returns the fractional part of f in 256ths.
func (f Fixed) Frac() int {
	return int(uint32(f) & 0xFF)
}

func (f Fixed) Float() float64 {
	return float64(f) / 256
}

func (f Fixed) String() string {
	return strconv.FormatFloat(f.Float(), 'f', -1, 64)
}

// Point converts a pair of surface-local coordinates to the pixel
// that contains them.
func Point(x, y Fixed) image.Point {
	return image.Pt(x.Int(), y.Int())
}
