package systems

import (
	"github.com/zeusync/simstore/internal/core/models"
)

// System processes registered entities once per tick.
//
// Process runs on the clock goroutine while the registry holds the lock of
// the bucket being dispatched. It must not register or unregister entities
// of that bucket.
type System interface {
	Name() string
	// Handles is the category mask the system wants to see.
	Handles() models.Category
	Process(e *models.Entity, category models.Category) error
	// Dispose is called once when the owning registry closes.
	Dispose()
}

// Func adapts plain functions to System.
type Func struct {
	Label     string
	Mask      models.Category
	Fn        func(e *models.Entity, category models.Category) error
	OnDispose func()
}

var _ System = (*Func)(nil)

func (f *Func) Name() string             { return f.Label }
func (f *Func) Handles() models.Category { return f.Mask }

func (f *Func) Process(e *models.Entity, category models.Category) error {
	if f.Fn == nil {
		return nil
	}
	return f.Fn(e, category)
}

func (f *Func) Dispose() {
	if f.OnDispose != nil {
		f.OnDispose()
	}
}
