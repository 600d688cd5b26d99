package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/zeusync/simstore/internal/core/models"
	"github.com/zeusync/simstore/internal/core/systems"
)

// Bounds keeps positions inside an axis-aligned world rectangle.
type Bounds struct {
	Min, Max mgl32.Vec2
	Mask     models.Category

	clamped uint64
}

var _ systems.System = (*Bounds)(nil)

// NewBounds returns a Bounds system for dynamic objects, vehicles, players and mobs.
func NewBounds(lo, hi mgl32.Vec2) *Bounds {
	return &Bounds{
		Min:  lo,
		Max:  hi,
		Mask: models.CategoryDynamicObject | models.CategoryVehicle | models.CategoryPlayer | models.CategoryMob,
	}
}

func (b *Bounds) Name() string             { return "physics.bounds" }
func (b *Bounds) Handles() models.Category { return b.Mask }

func (b *Bounds) Process(e *models.Entity, _ models.Category) error {
	pos, ok := models.TryGet[*models.Position](e)
	if !ok || pos == nil {
		return nil
	}
	clamped := Clamp(pos.Vec2, b.Min, b.Max)
	if clamped != pos.Vec2 {
		pos.Vec2 = clamped
		b.clamped++
	}
	return nil
}

// Clamped returns how many positions were moved back inside. Read it from
// the clock goroutine or after the registry closed.
func (b *Bounds) Clamped() uint64 { return b.clamped }

func (b *Bounds) Dispose() {}

// Clamp limits v to the rectangle [lo, hi] per axis.
func Clamp(v, lo, hi mgl32.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		mgl32.Clamp(v.X(), lo.X(), hi.X()),
		mgl32.Clamp(v.Y(), lo.Y(), hi.Y()),
	}
}
