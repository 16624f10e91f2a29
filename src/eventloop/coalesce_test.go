package eventloop

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoalescerRunsLatestOnly(t *testing.T) {
	var queue []func()
	c := newCoalescer(func(fn func()) { queue = append(queue, fn) })

	value := 0
	for i := 1; i <= 5; i++ {
		c.Post("recompute", func() { value = i })
	}
	require.Len(t, queue, 1)
	queue[0]()
	assert.Equal(t, 5, value)

	c.Post("recompute", func() { value = 6 })
	require.Len(t, queue, 2)
	queue[1]()
	assert.Equal(t, 6, value)
}

func TestCoalescerKeysAreIndependent(t *testing.T) {
	var queue []func()
	c := newCoalescer(func(fn func()) { queue = append(queue, fn) })
	c.Post("a", func() {})
	c.Post("b", func() {})
	assert.Len(t, queue, 2)
}

func TestCoalescerDropsWorkAfterDestroy(t *testing.T) {
	var queue []func()
	c := newCoalescer(func(fn func()) { queue = append(queue, fn) })
	ran := false
	c.Post("recompute", func() { ran = true })
	c.Destroy()
	queue[0]()
	assert.False(t, ran)

	c.Post("recompute", func() { ran = true })
	assert.Len(t, queue, 1)
}
