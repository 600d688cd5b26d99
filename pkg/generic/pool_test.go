package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPool_ResetOnPut(t *testing.T) {
	resets := 0
	p := NewPool(func() []int { return make([]int, 0, 4) }).WithReset(func([]int) { resets++ })

	v := p.Get()
	assert.Equal(t, 4, cap(v))
	p.Put(append(v, 1))
	assert.Equal(t, 1, resets)
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(32)

	b := p.Get()
	assert.Zero(t, b.Len())
	b.WriteString("frame")
	p.Put(b)
	assert.Zero(t, b.Len())

	big := p.Get()
	big.Grow(maxPooledBuffer + 1)
	p.Put(big)
	assert.LessOrEqual(t, big.Cap(), maxPooledBuffer)
	assert.Zero(t, big.Len())
}
