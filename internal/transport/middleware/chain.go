package middleware

import "net/http"

// Middleware decorates an http.Handler with cross-cutting behavior.
type Middleware func(http.Handler) http.Handler

// Chain folds several middleware into one, applied in the order given:
// Chain(mw1, mw2)(h) serves a request through mw1 first, then mw2, then h.
// The app wiring relies on this to keep RequestID outermost so every later
// stage, logging included, sees the request id.
func Chain(mws ...Middleware) Middleware {
	return func(final http.Handler) http.Handler {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}
