package registry

import (
	"github.com/zeusync/simstore/internal/core/models"
)

// Cursor walks buckets in category declaration order and remembers the last
// index visited in the current bucket. Each bucket is locked only while a
// single Next call scans it.
//
// Consistency is weak: entities appended to a bucket not yet finished are
// seen, removals before the remembered index shift later entities left so
// one may be skipped, and a finished bucket is never revisited.
type Cursor struct {
	r       *Registry
	mask    models.Category
	pred    func(*models.Entity) bool
	checked models.Category
	last    int
	current *models.Entity
	closed  bool
}

var _ models.Iterator[*models.Entity] = (*Cursor)(nil)

func newCursor(r *Registry, mask models.Category, pred func(*models.Entity) bool) *Cursor {
	return &Cursor{r: r, mask: mask, pred: pred, last: -1}
}

func (c *Cursor) Next() bool {
	if c.closed {
		return false
	}
	for _, b := range c.r.buckets {
		if b.category&c.mask&^c.checked == 0 {
			continue
		}
		if c.scan(b) {
			return true
		}
	}
	c.current = nil
	return false
}

func (c *Cursor) scan(b *bucket) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := c.last + 1; i < len(b.entities); i++ {
		e := b.entities[i]
		c.last = i
		if c.pred == nil || c.pred(e) {
			c.current = e
			return true
		}
	}
	c.checked |= b.category
	c.last = -1
	return false
}

func (c *Cursor) Item() *models.Entity { return c.current }

func (c *Cursor) Error() error { return nil }

func (c *Cursor) Close() error {
	c.closed = true
	c.current = nil
	return nil
}

// ToSlice drains the remaining entities.
func (c *Cursor) ToSlice() []*models.Entity {
	var out []*models.Entity
	for c.Next() {
		out = append(out, c.Item())
	}
	return out
}

// Count drains the cursor and returns how many entities it yielded.
func (c *Cursor) Count() int {
	n := 0
	for c.Next() {
		n++
	}
	return n
}
