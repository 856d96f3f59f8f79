package common

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

type Vec3 = mgl32.Vec3
type Quat = mgl32.Quat

type IT interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// AssertTrue panics when a contract is violated. The arguments are only
// formatted on failure.
func AssertTrue(ok bool, format string, args ...any) {
	if !ok {
		panic(fmt.Sprintf("assertion failed: "+format, args...))
	}
}
