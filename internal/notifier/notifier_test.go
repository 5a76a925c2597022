package notifier

import (
	"testing"

	"github.com/gdextbuild/compilerd/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeReceivesNotify(t *testing.T) {
	n := New()
	var got []Event
	n.Subscribe(func(ev Event) { got = append(got, ev) })

	scene := &task.Scene{Name: "s"}
	n.Notify(Event{Scene: scene, Kind: TaskFinished, Succeeded: true})

	require.Len(t, got, 1)
	assert.Equal(t, scene, got[0].Scene)
	assert.True(t, got[0].Succeeded)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	n := New()
	count := 0
	id := n.Subscribe(func(Event) { count++ })
	n.Notify(Event{})
	n.Unsubscribe(id)
	n.Notify(Event{})

	assert.Equal(t, 1, count, "expected exactly one delivery")
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	n := New()
	a, b := 0, 0
	n.Subscribe(func(Event) { a++ })
	n.Subscribe(func(Event) { b++ })
	n.Notify(Event{})

	assert.Equal(t, 1, a)
	assert.Equal(t, 1, b)
}

func TestSubscriberCanUnsubscribeItself(t *testing.T) {
	n := New()
	var id int
	calls := 0
	id = n.Subscribe(func(Event) {
		calls++
		n.Unsubscribe(id)
	})
	n.Notify(Event{})
	n.Notify(Event{})

	assert.Equal(t, 1, calls, "expected self-unsubscribe to prevent a second delivery")
	assert.Equal(t, 0, n.Len(), "expected no subscribers left")
}
