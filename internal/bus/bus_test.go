package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishReachesAllSubscribers(t *testing.T) {
	b := New()

	var first, second []any
	b.Subscribe("ev", func(p any) { first = append(first, p) })
	b.Subscribe("ev", func(p any) { second = append(second, p) })

	b.Publish("ev", 42)

	assert.Equal(t, []any{42}, first)
	assert.Equal(t, []any{42}, second)
}

func TestPublishIsScopedByEventName(t *testing.T) {
	b := New()

	called := false
	b.Subscribe("other", func(any) { called = true })

	b.Publish("ev", nil)

	assert.False(t, called)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()

	count := 0
	unsubscribe := b.Subscribe("ev", func(any) { count++ })

	b.Publish("ev", nil)
	unsubscribe()
	b.Publish("ev", nil)

	assert.Equal(t, 1, count)
}

func TestNoReplayForLateSubscribers(t *testing.T) {
	b := New()

	b.Publish("ev", "missed")

	var got []any
	b.Subscribe("ev", func(p any) { got = append(got, p) })

	assert.Empty(t, got)
}

func TestPublishWithNoSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish("ev", nil)
}
