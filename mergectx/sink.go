package mergectx

import "sync"

// Sink is a single-writer append-only byte sink with a snapshot
// accessor; multi-threaded consumers serialize writes through its mutex.
// MergeContext owns one for buffered output and one for diagnostics.
type Sink struct {
	mu  sync.Mutex
	buf []byte
}

// NewSink builds an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Write appends p to the sink. Always returns len(p), nil: a Sink never
// fails to buffer.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

// WriteString is the string-argument convenience form of Write.
func (s *Sink) WriteString(str string) (int, error) {
	return s.Write([]byte(str))
}

// Snapshot returns a copy of the sink's contents so far. Safe to call
// while writers are still appending.
func (s *Sink) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// Reset clears the sink's contents.
func (s *Sink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = s.buf[:0]
}
