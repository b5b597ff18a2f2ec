package broadcast

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesAllSubscribers(t *testing.T) {
	h := New[int]("test", zerolog.Nop())
	a, cancelA := h.Subscribe(1)
	b, cancelB := h.Subscribe(1)
	defer cancelA()
	defer cancelB()

	assert.Equal(t, 2, h.Publish(7))
	assert.Equal(t, 7, <-a)
	assert.Equal(t, 7, <-b)
}

func TestHub_FullSubscriberDropsWithoutBlocking(t *testing.T) {
	h := New[string]("test", zerolog.Nop())
	ch, cancel := h.Subscribe(1)
	defer cancel()

	assert.Equal(t, 1, h.Publish("first"))
	assert.Equal(t, 0, h.Publish("second"))
	assert.Equal(t, "first", <-ch)
}

func TestHub_UnsubscribeClosesChannelOnce(t *testing.T) {
	h := New[int]("test", zerolog.Nop())
	ch, cancel := h.Subscribe(1)
	cancel()
	cancel()

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
	assert.Equal(t, 0, h.Subscribers())
	assert.Equal(t, 0, h.Publish(1))
}

func TestHub_CloseEndsSubscriptions(t *testing.T) {
	h := New[int]("test", zerolog.Nop())
	ch, cancel := h.Subscribe(1)
	h.Close()
	cancel()

	_, ok := <-ch
	require.False(t, ok)

	late, _ := h.Subscribe(1)
	_, ok = <-late
	assert.False(t, ok, "subscribing after Close returns a closed channel")
}
