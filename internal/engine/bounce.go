package engine

import (
	"math"
	"time"
)

// Bouncer moves a sprite of a fixed size around a rectangle, reflecting off every edge.
// Position is integrated from elapsed time so frame rate does not change speed.
type Bouncer struct {
	X, Y   float64
	VX, VY float64 // unit direction, each ±1
	Speed  float64 // cells per second
	W, H   int     // sprite size
	maxX   float64
	maxY   float64
	last   time.Time
}

// NewBouncer places the sprite somewhere inside width×height with a random diagonal heading.
func NewBouncer(stream *Stream, width, height, spriteW, spriteH int, speed float64) *Bouncer {
	b := &Bouncer{W: spriteW, H: spriteH, Speed: speed, VX: 1, VY: 1}
	b.Resize(width, height)
	pos, heading := stream.Child("position"), stream.Child("heading")
	b.X = math.Floor(pos.Float64() * math.Max(1, b.maxX))
	b.Y = math.Floor(pos.Float64() * math.Max(1, b.maxY))
	if heading.Intn(2) == 0 {
		b.VX = -1
	}
	if heading.Intn(2) == 0 {
		b.VY = -1
	}
	b.clamp()
	return b
}

// Resize changes the bounds and pulls the sprite back inside them.
func (b *Bouncer) Resize(width, height int) {
	b.maxX = math.Max(0, float64(width-b.W))
	b.maxY = math.Max(0, float64(height-b.H))
	b.clamp()
}

// Step advances to t. The first call only records the timestamp.
func (b *Bouncer) Step(t time.Time) {
	if b.last.IsZero() {
		b.last = t
		return
	}
	dt := t.Sub(b.last).Seconds()
	b.last = t
	if dt <= 0 {
		return
	}
	b.X += b.VX * b.Speed * dt
	b.Y += b.VY * b.Speed * dt
	if b.X <= 0 {
		b.X, b.VX = 0, math.Abs(b.VX)
	}
	if b.X >= b.maxX {
		b.X, b.VX = b.maxX, -math.Abs(b.VX)
	}
	if b.Y <= 0 {
		b.Y, b.VY = 0, math.Abs(b.VY)
	}
	if b.Y >= b.maxY {
		b.Y, b.VY = b.maxY, -math.Abs(b.VY)
	}
}

// Pause forgets the last timestamp so a resumed animation does not jump.
func (b *Bouncer) Pause() { b.last = time.Time{} }

// Cell returns the rounded top-left position.
func (b *Bouncer) Cell() (int, int) { return int(math.Round(b.X)), int(math.Round(b.Y)) }

func (b *Bouncer) clamp() {
	b.X = math.Min(math.Max(b.X, 0), b.maxX)
	b.Y = math.Min(math.Max(b.Y, 0), b.maxY)
}
