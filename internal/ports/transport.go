package ports

// Transport carries encoded wire messages to the IDE. Framing and connection
// lifecycle belong to the implementation.
type Transport interface {
	Send(message string) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(message string) error

// Send calls f(message).
func (f TransportFunc) Send(message string) error { return f(message) }
