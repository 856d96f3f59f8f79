package voronoi

import "github.com/gorustyt/gonavlanes/common"

// LineIterator steps through the cells of a Bresenham line, both end
// points included.
type LineIterator struct {
	x, y         int64
	endX, endY   int64
	dx, dy       int64
	stepX, stepY int64
	err          int64
	done         bool
}

func NewLineIterator(sx, sy, ex, ey int64) *LineIterator {
	it := &LineIterator{x: sx, y: sy, endX: ex, endY: ey}
	it.dx = common.Abs(ex - sx)
	it.dy = -common.Abs(ey - sy)
	it.stepX = 1
	if sx > ex {
		it.stepX = -1
	}
	it.stepY = 1
	if sy > ey {
		it.stepY = -1
	}
	it.err = it.dx + it.dy
	return it
}

// Next returns the next cell on the line; ok is false once the end point
// has been returned.
func (it *LineIterator) Next() (x, y int64, ok bool) {
	if it.done {
		return 0, 0, false
	}
	x, y = it.x, it.y
	if it.x == it.endX && it.y == it.endY {
		it.done = true
		return x, y, true
	}
	e2 := 2 * it.err
	if e2 >= it.dy {
		it.err += it.dy
		it.x += it.stepX
	}
	if e2 <= it.dx {
		it.err += it.dx
		it.y += it.stepY
	}
	return x, y, true
}
