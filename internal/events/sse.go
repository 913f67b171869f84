package events

import (
	"context"

	"github.com/kelindar/event"
)

// SubscribeToChannel bridges subscriptions to a channel for the SSE
// handler's select loop. Events are dropped when ch is full.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}

// Forward delivers events of type T into ch, blocking until the consumer
// takes them or ctx is done. The render loop uses it so no input is lost.
func Forward[T Event](ctx context.Context, bus *Bus, ch chan<- Event) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		case <-ctx.Done():
		}
	})
}
