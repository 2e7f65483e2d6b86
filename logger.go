package chunkcache

import "maps"

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Provide an adapter around logging stack.
// If Logger is nil in Options, logging is disabled.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// scoped adds base fields to every line; per-line fields win on conflict.
type scoped struct {
	l    Logger
	base Fields
}

func (s scoped) merge(f Fields) Fields {
	if len(f) == 0 {
		return s.base
	}
	out := maps.Clone(s.base)
	maps.Copy(out, f)
	return out
}

func (s scoped) Debug(msg string, f Fields) { s.l.Debug(msg, s.merge(f)) }
func (s scoped) Info(msg string, f Fields)  { s.l.Info(msg, s.merge(f)) }
func (s scoped) Warn(msg string, f Fields)  { s.l.Warn(msg, s.merge(f)) }
func (s scoped) Error(msg string, f Fields) { s.l.Error(msg, s.merge(f)) }
