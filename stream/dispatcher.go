package stream

// Callback handles one event. A non-nil error aborts the emit and
// propagates to the emitter.
type Callback func(Event) error

// Dispatcher routes events to registered subscribers. Delivery is
// synchronous: Emit returns only after every matching callback has
// run, so a slow subscriber applies backpressure to the producing
// stage. There is no replay buffer; subscribers must register before
// the producing stage starts.
//
// The dispatcher is not safe for registration concurrent with Emit;
// the pipeline registers all subscribers up front.
type Dispatcher struct {
	global []Callback
	byType map[EventType][]Callback
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		byType: make(map[EventType][]Callback),
	}
}

// On registers a callback invoked for events of one type, in
// registration order after all global callbacks.
func (d *Dispatcher) On(t EventType, cb Callback) {
	d.byType[t] = append(d.byType[t], cb)
}

// OnAll registers a callback invoked for every event, before any
// type-specific callbacks.
func (d *Dispatcher) OnAll(cb Callback) {
	d.global = append(d.global, cb)
}

// Emit delivers the event to all global callbacks (registration
// order), then to the callbacks registered for its type. The first
// callback error aborts delivery and is returned to the caller: a
// failing subscriber is not isolated from the emitting stage.
func (d *Dispatcher) Emit(ev Event) error {
	for _, cb := range d.global {
		if err := cb(ev); err != nil {
			return err
		}
	}
	for _, cb := range d.byType[ev.Type] {
		if err := cb(ev); err != nil {
			return err
		}
	}
	return nil
}
