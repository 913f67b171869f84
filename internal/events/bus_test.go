package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/padnode/internal/launchpad"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := New()
	received := make(chan KeyDownEvent, 1)

	unsub := bus.Subscribe(func(e KeyDownEvent) {
		received <- e
	})
	defer unsub()

	bus.Publish(KeyDownEvent{Key: 55})

	select {
	case got := <-received:
		if got.Key != 55 {
			t.Errorf("Key = %d, want 55", got.Key)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out")
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	bus := New()
	received1 := make(chan RedrawEvent, 1)
	received2 := make(chan RedrawEvent, 1)

	defer bus.Subscribe(func(e RedrawEvent) { received1 <- e })()
	defer bus.Subscribe(func(e RedrawEvent) { received2 <- e })()

	bus.Publish(RedrawEvent{Reason: "tick"})

	for _, ch := range []chan RedrawEvent{received1, received2} {
		select {
		case e := <-ch:
			if e.Reason != "tick" {
				t.Errorf("Reason = %q", e.Reason)
			}
		case <-time.After(time.Second):
			t.Fatal("subscriber did not receive event")
		}
	}
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := New()
	received := make(chan MediaPlayingEvent, 1)

	unsub := bus.Subscribe(func(e MediaPlayingEvent) {
		received <- e
	})

	bus.Publish(MediaPlayingEvent{Playing: true})
	<-received

	unsub()

	bus.Publish(MediaPlayingEvent{Playing: false})
	select {
	case <-received:
		t.Fatal("received event after unsubscribe")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_TypeSafety(t *testing.T) {
	bus := New()

	downs := make(chan bool, 1)
	ups := make(chan bool, 1)

	defer bus.Subscribe(func(_ KeyDownEvent) { downs <- true })()
	defer bus.Subscribe(func(_ KeyUpEvent) { ups <- true })()

	bus.Publish(KeyDownEvent{Key: 11})
	<-downs

	select {
	case <-ups:
		t.Fatal("KeyUp subscriber received KeyDownEvent")
	case <-time.After(10 * time.Millisecond):
	}
}

func TestBus_OrderWithinType(t *testing.T) {
	bus := New()
	const n = 50
	got := make(chan uint8, n)

	defer bus.Subscribe(func(e BrightnessEvent) { got <- e.Level })()

	for i := range n {
		bus.Publish(BrightnessEvent{Level: uint8(i)})
	}
	for i := range n {
		if level := <-got; level != uint8(i) {
			t.Fatalf("event %d has level %d", i, level)
		}
	}
}

func TestBus_ThreadSafety(_ *testing.T) {
	bus := New()
	var wg sync.WaitGroup
	numGoroutines := 10
	eventsPerGoroutine := 100
	expected := numGoroutines * eventsPerGoroutine

	receivedCh := make(chan bool, expected)
	defer bus.Subscribe(func(_ DeviceHotplugEvent) { receivedCh <- true })()

	for range numGoroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range eventsPerGoroutine {
				bus.Publish(DeviceHotplugEvent{
					Action:    "add",
					Timestamp: time.Now().Format(time.RFC3339),
				})
			}
		}()
	}
	wg.Wait()

	for range expected {
		<-receivedCh
	}
}

func TestBus_AllEventTypes(t *testing.T) {
	bus := New()

	tests := []struct {
		name  string
		event Event
		sub   func(chan<- Event) func()
	}{
		{"KeyDown", KeyDownEvent{Key: 11}, func(c chan<- Event) func() { return bus.Subscribe(func(e KeyDownEvent) { c <- e }) }},
		{"KeyUp", KeyUpEvent{Key: 11}, func(c chan<- Event) func() { return bus.Subscribe(func(e KeyUpEvent) { c <- e }) }},
		{"Brightness", BrightnessEvent{Level: 1}, func(c chan<- Event) func() { return bus.Subscribe(func(e BrightnessEvent) { c <- e }) }},
		{"WorkspacesChanged", WorkspacesChangedEvent{Change: "focus"}, func(c chan<- Event) func() { return bus.Subscribe(func(e WorkspacesChangedEvent) { c <- e }) }},
		{"MediaPlaying", MediaPlayingEvent{Playing: true}, func(c chan<- Event) func() { return bus.Subscribe(func(e MediaPlayingEvent) { c <- e }) }},
		{"Redraw", RedrawEvent{Reason: "x"}, func(c chan<- Event) func() { return bus.Subscribe(func(e RedrawEvent) { c <- e }) }},
		{"Exit", ExitEvent{Reason: "x"}, func(c chan<- Event) func() { return bus.Subscribe(func(e ExitEvent) { c <- e }) }},
		{"TextRequested", TextRequestedEvent{Text: "hi"}, func(c chan<- Event) func() { return bus.Subscribe(func(e TextRequestedEvent) { c <- e }) }},
		{"BrightnessRequested", BrightnessRequestedEvent{Level: 2}, func(c chan<- Event) func() { return bus.Subscribe(func(e BrightnessRequestedEvent) { c <- e }) }},
		{"DeviceHotplug", DeviceHotplugEvent{Action: "remove"}, func(c chan<- Event) func() { return bus.Subscribe(func(e DeviceHotplugEvent) { c <- e }) }},
		{"LogEntry", LogEntryEvent{Message: "m"}, func(c chan<- Event) func() { return bus.Subscribe(func(e LogEntryEvent) { c <- e }) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			received := make(chan Event, 1)
			unsub := tt.sub(received)
			defer unsub()

			bus.Publish(tt.event)
			select {
			case got := <-received:
				if got.Type() != tt.event.Type() {
					t.Errorf("Type = %d, want %d", got.Type(), tt.event.Type())
				}
			case <-time.After(time.Second):
				t.Fatal("timed out")
			}
		})
	}
}

func TestSubscribeUnknownHandlerIsNoop(t *testing.T) {
	bus := New()
	unsub := bus.Subscribe(func(string) {})
	unsub()
}

func TestEventJSON(t *testing.T) {
	data, err := json.Marshal(TextRequestedEvent{Text: "hi", Speed: 15, Color: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := `{"text":"hi","loop":false,"speed":15,"color":3}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}
}

func TestSubscribeToChannel(t *testing.T) {
	bus := New()
	ch := make(chan any, 10)

	defer SubscribeToChannel[ExitEvent](bus, ch)()

	bus.Publish(ExitEvent{Reason: "test"})

	received := <-ch
	exit, ok := received.(ExitEvent)
	if !ok {
		t.Fatalf("got %T, want ExitEvent", received)
	}
	if exit.Reason != "test" {
		t.Errorf("Reason = %q", exit.Reason)
	}
}

func TestSubscribeToChannel_NonBlocking(_ *testing.T) {
	bus := New()
	ch := make(chan any)

	defer SubscribeToChannel[RedrawEvent](bus, ch)()

	done := make(chan bool, 1)
	go func() {
		bus.Publish(RedrawEvent{})
		done <- true
	}()
	<-done
}

func TestForwardDeliversAll(t *testing.T) {
	bus := New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := make(chan Event)
	defer Forward[KeyUpEvent](ctx, bus, ch)()

	for i := range 5 {
		bus.Publish(KeyUpEvent{Key: launchpad.Key(11+i)})
	}
	for i := range 5 {
		select {
		case e := <-ch:
			if e.(KeyUpEvent).Key != launchpad.Key(11+i) {
				t.Errorf("event %d = %+v", i, e)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out")
		}
	}
}

func TestNamesCoverEveryType(t *testing.T) {
	names := Names()
	for name, ev := range names {
		if got := Name(ev.(Event)); got != name {
			t.Errorf("Name(%T) = %q, want %q", ev, got, name)
		}
	}
	if len(names) != int(TypeLogEntry) {
		t.Errorf("%d names for %d types", len(names), TypeLogEntry)
	}
}
