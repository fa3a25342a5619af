// Package curve implements the forward and inverse Hilbert curve mapping
// used to project a 1D index onto a 2D grid (and back) while preserving
// locality: addresses that are numerically close land on adjacent cells.
package curve

import "fmt"

// MinOrder and MaxOrder bound the supported curve orders. Dimension is
// 1<<order, so order 16 already yields a 65536x65536 grid.
const (
	MinOrder = 4
	MaxOrder = 16
)

// Config is the immutable curve configuration derived from an order.
type Config struct {
	Order       uint
	Dimension   uint32
	TotalPoints uint64
}

// NewConfig validates order and derives Dimension and TotalPoints.
func NewConfig(order uint) (Config, error) {
	if order < MinOrder || order > MaxOrder {
		return Config{}, fmt.Errorf("curve: order %d out of range [%d,%d]", order, MinOrder, MaxOrder)
	}
	dim := uint32(1) << order
	return Config{
		Order:       order,
		Dimension:   dim,
		TotalPoints: uint64(dim) * uint64(dim),
	}, nil
}

// Dimension returns 1<<order for a bare order value, without constructing a Config.
func Dimension(order uint) uint32 {
	return uint32(1) << order
}

// TotalPoints returns dimension(order)^2 for a bare order value.
func TotalPoints(order uint) uint64 {
	d := uint64(Dimension(order))
	return d * d
}

// Encode maps a 2D point (x, y), each < dimension(order), to its 1D Hilbert
// index. It processes order bits from MSB to LSB, accumulating the index
// and rotating the sub-quadrant at each step.
func Encode(x, y uint32, order uint) uint64 {
	var index uint64
	for s := uint32(1) << (order - 1); s > 0; s >>= 1 {
		var rx, ry uint32
		if x&s > 0 {
			rx = 1
		}
		if y&s > 0 {
			ry = 1
		}
		index += uint64(s) * uint64(s) * uint64((3*rx)^ry)
		x, y = rotate(s, x, y, rx, ry)
	}
	return index
}

// Decode inverts Encode: given a Hilbert index and order, returns (x, y).
// It runs s from 1 up to 2^(order-1), deriving rx, ry from the low bits of
// the remaining index and undoing the same rotation Encode applied.
func Decode(index uint64, order uint) (x, y uint32) {
	for s := uint32(1); s < (uint32(1) << (order - 1) << 1); s <<= 1 {
		rx := uint32((index / 2) & 1)
		ry := uint32((index ^ uint64(rx)) & 1)
		x, y = rotate(s, x, y, rx, ry)
		x += s * rx
		y += s * ry
		index /= 4
	}
	return x, y
}

// rotate applies the standard Hilbert quadrant rotation/reflection used by
// both Encode and Decode: when ry == 0, reflect the sub-quadrant about its
// own center when rx == 1, then swap x and y.
func rotate(s, x, y, rx, ry uint32) (uint32, uint32) {
	if ry == 0 {
		if rx == 1 {
			x = s - 1 - x
			y = s - 1 - y
		}
		x, y = y, x
	}
	return x, y
}
