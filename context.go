package chunkcache

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	labelKey
)

// WithLogger makes l the logger for cache calls made with the returned
// context, overriding Options.Logger.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithLabel tags log lines of cache calls made with the returned context
// with a "label" field, e.g. a request or sub-query identifier.
func WithLabel(ctx context.Context, label string) context.Context {
	return context.WithValue(ctx, labelKey, label)
}

// LabelFrom returns the label attached by WithLabel, if any.
func LabelFrom(ctx context.Context) (string, bool) {
	l, ok := ctx.Value(labelKey).(string)
	return l, ok
}

func loggerFrom(ctx context.Context, def Logger) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok && l != nil {
		return l
	}
	return def
}
