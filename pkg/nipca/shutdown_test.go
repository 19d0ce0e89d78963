package nipca

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownNotifierRunsOnce(t *testing.T) {
	n := NewShutdownNotifier()

	var a, b atomic.Int32
	n.Register(func() { a.Add(1) })
	n.Register(func() { b.Add(1) })

	n.Notify()
	n.Notify()

	assert.Equal(t, int32(1), a.Load())
	assert.Equal(t, int32(1), b.Load())
	assert.True(t, n.Notified())
}

func TestShutdownNotifierDeregister(t *testing.T) {
	n := NewShutdownNotifier()

	var calls atomic.Int32
	deregister := n.Register(func() { calls.Add(1) })
	deregister()
	n.Notify()

	assert.Zero(t, calls.Load())
}

func TestShutdownNotifierLateRegistration(t *testing.T) {
	n := NewShutdownNotifier()
	n.Notify()

	var calls atomic.Int32
	deregister := n.Register(func() { calls.Add(1) })
	deregister()

	assert.Equal(t, int32(1), calls.Load())
}
