package errors

import (
	"context"
	"net/http"
	"sync/atomic"
)

// Handler is an http handler that reports failure by returning it.
type Handler func(w http.ResponseWriter, r *http.Request) error

// ServerErrorFunc observes 5xx failures before they are written.
type ServerErrorFunc func(ctx context.Context, err *AppError)

var serverErrorHook atomic.Value // ServerErrorFunc

// OnServerError installs fn as the 5xx observer, typically a logger.
func OnServerError(fn ServerErrorFunc) {
	serverErrorHook.Store(fn)
}

func reportServerError(ctx context.Context, err *AppError) {
	if fn, ok := serverErrorHook.Load().(ServerErrorFunc); ok && fn != nil {
		fn(ctx, err)
	}
}

// HandleFunc adapts h to net/http. A returned error becomes the JSON error
// envelope; nothing else in the server writes one for handler failures.
func HandleFunc(h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		appErr := As(err)
		if appErr.IsServer() {
			reportServerError(r.Context(), appErr)
		}
		WriteError(w, GetRequestID(r.Context()), appErr)
	}
}
