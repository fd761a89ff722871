package core

import "cmp"

// Rect is a screen area in cells. Right and Bottom are exclusive.
type Rect struct {
	X, Y int
	W, H int
}

func NewRect(x, y, w, h int) Rect {
	return Rect{X: x, Y: y, W: w, H: h}
}

func (r Rect) Right() int  { return r.X + r.W }
func (r Rect) Bottom() int { return r.Y + r.H }

// Center returns the middle cell, rounding toward the top-left.
func (r Rect) Center() (int, int) {
	return r.X + r.W/2, r.Y + r.H/2
}

// Clamp restricts v to [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	return min(max(v, lo), hi)
}
