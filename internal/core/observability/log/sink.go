package log

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity is the coarse level the store core reports with.
type Severity uint8

const (
	SeverityLog Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityLog:
		return "log"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", uint8(s))
	}
}

// Record is one message published through a Sink.
type Record struct {
	Message  string
	Severity Severity
	Stack    string
	Time     time.Time
}

// SinkFunc receives published records. It runs on the publisher's goroutine.
type SinkFunc func(Record)

type sinkSubscription struct {
	id string
	fn SinkFunc
}

// Sink is the single publish point of the store core. The host decides
// presentation by subscribing; publishing with no subscribers is a no-op.
type Sink struct {
	mu   sync.RWMutex
	subs []sinkSubscription
}

func NewSink() *Sink {
	return &Sink{}
}

var defaultSink = NewSink()

// DefaultSink returns the process-wide sink.
func DefaultSink() *Sink {
	return defaultSink
}

// SinkOr returns s, or the process-wide sink when s is nil.
func SinkOr(s *Sink) *Sink {
	if s == nil {
		return defaultSink
	}
	return s
}

// Subscribe registers fn and returns the function that removes it again.
// Calling the returned function more than once is safe.
func (s *Sink) Subscribe(fn SinkFunc) func() {
	id := uuid.NewString()
	s.mu.Lock()
	s.subs = append(s.subs, sinkSubscription{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of active subscriptions.
func (s *Sink) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Publish delivers msg to every subscriber in subscription order. Warnings
// and errors carry the caller's stack.
func (s *Sink) Publish(msg string, severity Severity) {
	s.mu.RLock()
	if len(s.subs) == 0 {
		s.mu.RUnlock()
		return
	}
	subs := make([]sinkSubscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	rec := Record{Message: msg, Severity: severity, Time: time.Now()}
	if severity != SeverityLog {
		rec.Stack = callerStack(3)
	}
	for _, sub := range subs {
		deliver(sub.fn, rec)
	}
}

func (s *Sink) Publishf(severity Severity, format string, args ...any) {
	s.Publish(fmt.Sprintf(format, args...), severity)
}

// PublishError reports err at error severity.
func (s *Sink) PublishError(err error) {
	if err == nil {
		return
	}
	s.Publish(err.Error(), SeverityError)
}

func deliver(fn SinkFunc, rec Record) {
	// a broken subscriber must not take the publisher down with it
	defer func() { _ = recover() }()
	fn(rec)
}

func callerStack(skip int) string {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var b strings.Builder
	for {
		frame, more := frames.Next()
		fmt.Fprintf(&b, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return b.String()
}

// ZapSubscriber adapts a Log to the sink, mapping severities onto levels.
func ZapSubscriber(l Log) SinkFunc {
	return func(rec Record) {
		fields := []Field{String("severity", rec.Severity.String())}
		if rec.Stack != "" {
			fields = append(fields, String("stack", rec.Stack))
		}
		switch rec.Severity {
		case SeverityWarning:
			l.Warn(rec.Message, fields...)
		case SeverityError:
			l.Error(rec.Message, fields...)
		default:
			l.Info(rec.Message, fields...)
		}
	}
}
