package generic

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResetPool_ResetsAndDrops(t *testing.T) {
	var resets, created int
	p := NewResetPool(func() *bytes.Buffer {
		created++
		return new(bytes.Buffer)
	}, func(b *bytes.Buffer) bool {
		resets++
		keep := b.Cap() <= 16
		b.Reset()
		return keep
	})

	small := p.Get()
	small.WriteString("abc")
	p.Put(small)
	assert.Equal(t, 1, resets)
	assert.Zero(t, small.Len())

	big := p.Get()
	big.Grow(1024)
	p.Put(big)
	assert.Equal(t, 2, resets)
	assert.Positive(t, created)
}
