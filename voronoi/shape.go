package voronoi

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gorustyt/gonavlanes/common"
)

type ShapeKind int

const (
	ShapeSphere ShapeKind = iota
	ShapeAabb
	ShapeObb
	// ShapeTriangleMesh is accepted from collision queries but never
	// rasterized.
	ShapeTriangleMesh
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeSphere:
		return "sphere"
	case ShapeAabb:
		return "aabb"
	case ShapeObb:
		return "obb"
	case ShapeTriangleMesh:
		return "triangle-mesh"
	}
	return "unknown"
}

// Shape is a closed set of obstacle primitives. Only the fields of Kind are
// meaningful:
//
//	sphere: Center, Radius
//	aabb:   Min, Max (any two opposite corners)
//	obb:    Center, Rotation, HalfExtents
type Shape struct {
	Kind           ShapeKind
	Center         common.Vec3
	Radius         float32
	Min, Max       common.Vec3
	Rotation       common.Quat
	HalfExtents    common.Vec3
	CollisionFlags uint32
}

func Sphere(center common.Vec3, radius float32) Shape {
	return Shape{Kind: ShapeSphere, Center: center, Radius: radius}
}

func Aabb(cornerA, cornerB common.Vec3) Shape {
	return Shape{Kind: ShapeAabb, Min: common.Vmin(cornerA, cornerB), Max: common.Vmax(cornerA, cornerB)}
}

func Obb(center common.Vec3, rotation common.Quat, halfExtents common.Vec3) Shape {
	return Shape{Kind: ShapeObb, Center: center, Rotation: rotation.Normalize(), HalfExtents: halfExtents}
}

// Bounds returns the world-space bounding box of the shape.
func (s Shape) Bounds() (common.Vec3, common.Vec3) {
	switch s.Kind {
	case ShapeSphere:
		r := common.Vec3{s.Radius, s.Radius, s.Radius}
		return s.Center.Sub(r), s.Center.Add(r)
	case ShapeAabb:
		return common.Vmin(s.Min, s.Max), common.Vmax(s.Min, s.Max)
	case ShapeObb:
		lo := common.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
		hi := lo.Mul(-1)
		h := s.HalfExtents
		for i := 0; i < 8; i++ {
			corner := common.Vec3{h[0], h[1], h[2]}
			if i&1 != 0 {
				corner[0] = -corner[0]
			}
			if i&2 != 0 {
				corner[1] = -corner[1]
			}
			if i&4 != 0 {
				corner[2] = -corner[2]
			}
			p := s.Center.Add(s.Rotation.Rotate(corner))
			lo = common.Vmin(lo, p)
			hi = common.Vmax(hi, p)
		}
		return lo, hi
	}
	return s.Center, s.Center
}

// intersectsColumn tests the vertical segment x,z from base to top.
func (s Shape) intersectsColumn(x, z, base, top float32) bool {
	switch s.Kind {
	case ShapeSphere:
		closest := common.Vec3{x, common.Clamp(s.Center.Y(), base, top), z}
		d := closest.Sub(s.Center)
		return d.Dot(d) <= s.Radius*s.Radius
	case ShapeAabb:
		return top >= s.Min.Y() && base <= s.Max.Y()
	case ShapeObb:
		inv := s.Rotation.Inverse()
		p0 := inv.Rotate(common.Vec3{x, base, z}.Sub(s.Center))
		p1 := inv.Rotate(common.Vec3{x, top, z}.Sub(s.Center))
		if insideBox(p0, s.HalfExtents) || insideBox(p1, s.HalfExtents) {
			return true
		}
		return segmentIntersectsBox(p0, p1, s.HalfExtents)
	}
	return false
}

func insideBox(p, half common.Vec3) bool {
	for i := 0; i < 3; i++ {
		if p[i] < -half[i] || p[i] > half[i] {
			return false
		}
	}
	return true
}

// segmentIntersectsBox is a slab test of p0->p1 against the box centered at
// the origin.
func segmentIntersectsBox(p0, p1, half common.Vec3) bool {
	const eps = 1e-6
	d := p1.Sub(p0)
	tmin, tmax := float32(0), float32(1)
	for i := 0; i < 3; i++ {
		if mgl32.Abs(d[i]) < eps {
			if p0[i] < -half[i] || p0[i] > half[i] {
				return false
			}
			continue
		}
		ood := 1 / d[i]
		t1 := (-half[i] - p0[i]) * ood
		t2 := (half[i] - p0[i]) * ood
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return false
		}
	}
	return true
}
