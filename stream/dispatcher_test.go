package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcher_GlobalBeforeTypeSpecific(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.On(EventTextDelta, func(Event) error {
		order = append(order, "typed-1")
		return nil
	})
	d.OnAll(func(Event) error {
		order = append(order, "global-1")
		return nil
	})
	d.OnAll(func(Event) error {
		order = append(order, "global-2")
		return nil
	})
	d.On(EventTextDelta, func(Event) error {
		order = append(order, "typed-2")
		return nil
	})

	require.NoError(t, d.Emit(NewTextDelta("a", "s", "hi")))
	assert.Equal(t, []string{"global-1", "global-2", "typed-1", "typed-2"}, order)
}

func TestDispatcher_TypeFiltering(t *testing.T) {
	d := NewDispatcher()
	var got []EventType

	d.On(EventToolStart, func(ev Event) error {
		got = append(got, ev.Type)
		return nil
	})

	require.NoError(t, d.Emit(NewTextDelta("a", "s", "hi")))
	require.NoError(t, d.Emit(NewToolStart("a", "s", "id", "Bash", nil)))
	assert.Equal(t, []EventType{EventToolStart}, got)
}

func TestDispatcher_FirstErrorAbortsDelivery(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("subscriber failed")
	var after int

	d.OnAll(func(Event) error { return boom })
	d.OnAll(func(Event) error {
		after++
		return nil
	})
	d.On(EventTextDelta, func(Event) error {
		after++
		return nil
	})

	err := d.Emit(NewTextDelta("a", "s", "hi"))
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, after, "callbacks after the failing one must not run")
}

func TestDispatcher_EmitWithNoSubscribers(t *testing.T) {
	d := NewDispatcher()
	assert.NoError(t, d.Emit(NewProgress("a", "s", "working", nil)))
}
