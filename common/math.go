package common

import (
	"cmp"
	"math"
)

func Sqrt(x float64) float64 {
	return math.Sqrt(x)
}

// / Returns the absolute value.
// / @param[in]		a	The value.
// / @return The absolute value of the specified value.
func Abs[T IT](a T) T {
	if a < 0 {
		return -a
	}
	return a
}

// / Clamps the value to the specified range.
// / @param[in]		value			The value to clamp.
// / @param[in]		minInclusive	The minimum permitted return value.
// / @param[in]		maxInclusive	The maximum permitted return value.
// / @return The value, clamped to the specified range.
func Clamp[T cmp.Ordered](value, minInclusive, maxInclusive T) T {
	if value < minInclusive {
		return minInclusive
	}
	if value > maxInclusive {
		return maxInclusive
	}
	return value
}

// / Selects the minimum value of each element of the vectors.
func Vmin(mn, v Vec3) Vec3 {
	return Vec3{min(mn[0], v[0]), min(mn[1], v[1]), min(mn[2], v[2])}
}

// / Selects the maximum value of each element of the vectors.
func Vmax(mx, v Vec3) Vec3 {
	return Vec3{max(mx[0], v[0]), max(mx[1], v[1]), max(mx[2], v[2])}
}

// / Derives the square of the distance between the specified points on the xz-plane.
// /  @param[in]		v1	A point. [(x, y, z)]
// /  @param[in]		v2	A point. [(x, y, z)]
// / @return The square of the distance between the point on the xz-plane.
func Vdist2DSqr(v1, v2 Vec3) float32 {
	dx := v2[0] - v1[0]
	dz := v2[2] - v1[2]
	return dx*dx + dz*dz
}

// / Derives the distance between the specified points on the xz-plane.
// /
// / The vectors are projected onto the xz-plane, so the y-values are ignored.
func Vdist2D(v1, v2 Vec3) float32 {
	return float32(math.Sqrt(float64(Vdist2DSqr(v1, v2))))
}

// Neighbour directions in counter clockwise order starting east. Even
// entries are the orthogonal neighbours, odd entries the diagonals.
const NeighbourCount = 8

var neighbourOffsetX = [NeighbourCount]int32{1, 1, 0, -1, -1, -1, 0, 1}
var neighbourOffsetY = [NeighbourCount]int32{0, 1, 1, 1, 0, -1, -1, -1}

// / Gets the x offset for the specified 8-neighbourhood direction.
// / @param[in]		direction		The direction. [Limits: 0 <= value < 8]
func GetNeighbourOffsetX(direction int) int32 {
	return neighbourOffsetX[direction&0x07]
}

// / Gets the y offset for the specified 8-neighbourhood direction.
// / @param[in]		direction		The direction. [Limits: 0 <= value < 8]
func GetNeighbourOffsetY(direction int) int32 {
	return neighbourOffsetY[direction&0x07]
}

// IsDiagonal reports whether the 8-neighbourhood direction is a diagonal.
func IsDiagonal(direction int) bool {
	return direction&1 == 1
}
