// Package activity keeps the bounded, user-visible activity log: tracker
// notices, command refusals, upload results and connection changes.
package activity

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Severity is the tag attached to every entry. The tracker sends the same
// vocabulary in server_message.type.
type Severity string

const (
	Info    Severity = "info"
	Success Severity = "success"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// ParseSeverity maps a tracker tag onto a Severity; unknown tags are Info.
func ParseSeverity(tag string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(tag))) {
	case Success:
		return Success
	case Warning:
		return Warning
	case Error:
		return Error
	default:
		return Info
	}
}

// Entry is one activity line. Tag is the label the entry arrived with: the
// tracker's server_message.type as sent, or the severity for local entries.
type Entry struct {
	Time     time.Time
	Severity Severity
	Tag      string
	Text     string
}

const DefaultLimit = 500

// Feed is a ring of the most recent entries. Every entry is mirrored to the
// zap logger at the matching level.
type Feed struct {
	mu    sync.Mutex
	ring  []Entry
	idx   int
	count int

	logger *zap.Logger
	now    func() time.Time

	subMu   sync.Mutex
	subs    map[int]func(Entry)
	nextSub int
}

func NewFeed(limit int, logger *zap.Logger) *Feed {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Feed{
		ring:   make([]Entry, limit),
		logger: logger,
		now:    time.Now,
	}
}

// Log appends text unchanged with the given severity.
func (f *Feed) Log(sev Severity, text string) {
	f.append(Entry{Time: f.now(), Severity: sev, Tag: string(sev), Text: text})
}

// LogTagged appends text under the tracker's own tag. The severity used for
// styling is derived from the tag; the tag itself is kept as received.
func (f *Feed) LogTagged(tag, text string) {
	f.append(Entry{Time: f.now(), Severity: ParseSeverity(tag), Tag: tag, Text: text})
}

func (f *Feed) append(entry Entry) {
	f.mu.Lock()
	f.ring[f.idx] = entry
	f.idx = (f.idx + 1) % len(f.ring)
	if f.count < len(f.ring) {
		f.count++
	}
	f.mu.Unlock()

	f.mirror(entry)
	f.publish(entry)
}

func (f *Feed) Logf(sev Severity, format string, args ...any) {
	f.Log(sev, fmt.Sprintf(format, args...))
}

// Entries returns the retained entries, oldest first.
func (f *Feed) Entries() []Entry {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]Entry, f.count)
	if f.count == len(f.ring) {
		for i := 0; i < f.count; i++ {
			out[i] = f.ring[(f.idx+i)%len(f.ring)]
		}
	} else {
		copy(out, f.ring[:f.count])
	}
	return out
}

// Clear drops every entry and records that it did.
func (f *Feed) Clear() {
	f.mu.Lock()
	for i := range f.ring {
		f.ring[i] = Entry{}
	}
	f.idx = 0
	f.count = 0
	f.mu.Unlock()

	f.Log(Info, "Logs cleared")
}

// Subscribe registers fn for new entries. fn must not block.
func (f *Feed) Subscribe(fn func(Entry)) func() {
	f.subMu.Lock()
	defer f.subMu.Unlock()
	if f.subs == nil {
		f.subs = make(map[int]func(Entry))
	}
	id := f.nextSub
	f.nextSub++
	f.subs[id] = fn
	return func() {
		f.subMu.Lock()
		defer f.subMu.Unlock()
		delete(f.subs, id)
	}
}

func (f *Feed) publish(entry Entry) {
	f.subMu.Lock()
	subs := make([]func(Entry), 0, len(f.subs))
	for _, fn := range f.subs {
		subs = append(subs, fn)
	}
	f.subMu.Unlock()

	for _, fn := range subs {
		fn(entry)
	}
}

func (f *Feed) mirror(entry Entry) {
	fields := []zap.Field{zap.String("severity", string(entry.Severity))}
	if entry.Tag != string(entry.Severity) {
		fields = append(fields, zap.String("tag", entry.Tag))
	}
	switch entry.Severity {
	case Error:
		f.logger.Error(entry.Text, fields...)
	case Warning:
		f.logger.Warn(entry.Text, fields...)
	default:
		f.logger.Info(entry.Text, fields...)
	}
}
