package events

// Event enumerates the topics flowing through the signal core.
type Event string

const (
	// EventSignalNew fires once per newly created signal, whether it came
	// from the live feed or the synthesizer.
	EventSignalNew Event = "signal.new"
	// EventSignalClosed fires when a signal reaches a terminal state.
	EventSignalClosed Event = "signal.closed"
	// EventPriceTick carries a per-symbol batch of latest prices.
	EventPriceTick Event = "price.tick"
	// EventConnState announces connection state machine transitions.
	EventConnState Event = "conn.state"
)
