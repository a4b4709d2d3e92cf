package sim

// A SignalSink is notified when the level of a signal it is connected to
// changes.
type SignalSink interface {
	NotifySignal(s *Signal, level bool)
}

// A Signal is a single-bit, level-sensitive wire. It models interrupt lines
// and chip-select lines. A signal remembers its level and fans level changes
// out to the connected sinks synchronously.
type Signal struct {
	name  string
	level bool
	sinks []SignalSink
}

// NewSignal creates a signal with the given initial level.
func NewSignal(name string, level bool) *Signal {
	return &Signal{
		name:  name,
		level: level,
	}
}

// Name returns the name of the signal.
func (s *Signal) Name() string {
	return s.name
}

// Level returns the current level of the signal.
func (s *Signal) Level() bool {
	return s.level
}

// Connect attaches a sink to the signal. The sink sees only level changes
// that happen after it is connected.
func (s *Signal) Connect(sink SignalSink) {
	s.sinks = append(s.sinks, sink)
}

// Set drives the signal to the given level. Sinks are notified only on level
// changes, and the notification completes before Set returns.
func (s *Signal) Set(level bool) {
	if s.level == level {
		return
	}

	s.level = level
	for _, sink := range s.sinks {
		sink.NotifySignal(s, level)
	}
}
