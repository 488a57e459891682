package notify

import (
	"time"

	"go.uber.org/zap"
)

type Kind string

const (
	KindMouseHover    Kind = "mouse_hover"
	KindMouseClick    Kind = "mouse_click"
	KindFileOperation Kind = "file_operation"
	KindInfo          Kind = "info"
	KindDebug         Kind = "debug"
)

// DefaultCapacity matches the number of entries the notifications panel keeps.
const DefaultCapacity = 10

type Entry struct {
	Kind      Kind      `json:"kind"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier is the producer side of a Sink.
type Notifier interface {
	Notify(kind Kind, message string)
}

// Sink is a bounded, append-only ring of notification entries. Append never
// blocks and never fails; when full, the oldest entry is evicted first.
//
// A Sink is owned by the interactive loop and is not safe for concurrent use.
type Sink struct {
	buf   []Entry
	head  int
	count int

	now    func() time.Time
	logger *zap.Logger
}

type Option func(*Sink)

func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger mirrors every appended entry to logger at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sink) {
		s.logger = logger
	}
}

func NewSink(capacity int, opts ...Option) *Sink {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	s := &Sink{
		buf: make([]Entry, capacity),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sink) Capacity() int {
	return len(s.buf)
}

func (s *Sink) Len() int {
	return s.count
}

func (s *Sink) Append(e Entry) {
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if s.count == len(s.buf) {
		s.buf[s.head] = e
		s.head = (s.head + 1) % len(s.buf)
	} else {
		s.buf[(s.head+s.count)%len(s.buf)] = e
		s.count++
	}
	if s.logger != nil {
		s.logger.Debug("notification", zap.String("kind", string(e.Kind)), zap.String("message", e.Message))
	}
}

func (s *Sink) Notify(kind Kind, message string) {
	s.Append(Entry{Kind: kind, Message: message})
}

// Snapshot returns a copy of the buffered entries, oldest first.
func (s *Sink) Snapshot() []Entry {
	out := make([]Entry, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Latest returns up to n entries, newest first.
func (s *Sink) Latest(n int) []Entry {
	if n <= 0 || n > s.count {
		n = s.count
	}
	out := make([]Entry, 0, n)
	for i := 0; i < n; i++ {
		idx := (s.head + s.count - 1 - i) % len(s.buf)
		out = append(out, s.buf[idx])
	}
	return out
}

func (s *Sink) Clear() {
	for i := range s.buf {
		s.buf[i] = Entry{}
	}
	s.head = 0
	s.count = 0
}

// Discard is a Notifier that drops everything.
type Discard struct{}

func (Discard) Notify(Kind, string) {}
