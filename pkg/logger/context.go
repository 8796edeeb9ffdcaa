package logger

import (
	"context"
	"sync"
)

var (
	contextKeysMu      sync.RWMutex
	contextKeyRegistry = map[interface{}]string{
		RequestIDKey: "request_id",
	}
)

// RegisterContextKey makes the *FCtx methods emit ctx.Value(ctxKey) under logField.
func RegisterContextKey(ctxKey interface{}, logField string) {
	contextKeysMu.Lock()
	defer contextKeysMu.Unlock()
	contextKeyRegistry[ctxKey] = logField
}

func UnregisterContextKey(ctxKey interface{}) {
	contextKeysMu.Lock()
	defer contextKeysMu.Unlock()
	delete(contextKeyRegistry, ctxKey)
}

// WithRequestID stores a request id that the *FCtx methods will log as request_id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// RequestIDFromContext returns the request id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok && id != ""
}

func withContext(ctx context.Context) []any {
	contextKeysMu.RLock()
	defer contextKeysMu.RUnlock()
	fields := make([]any, 0, len(contextKeyRegistry)*2)
	for key, fieldName := range contextKeyRegistry {
		if val := ctx.Value(key); val != nil {
			fields = append(fields, fieldName, val)
		}
	}
	return fields
}
