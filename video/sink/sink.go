package sink

// Sink is an append-only destination for the compressed byte stream,
// such as a file. Write faults are handled (and logged) inside the
// sink; callers treat appends as infallible.
type Sink interface {
	// Put appends bytes to the sink. The caller may reuse the buffer
	// after Put returns.
	Put(b []byte)

	// Close should be called to finalize the Sink.
	Close()
}
