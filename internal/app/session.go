package app

import (
	"context"
	"log/slog"
	"net/http"
)

type sessionKey string

const (
	SessionKeyGuest = sessionKey("guest")
)

func (s sessionKey) String() string {
	return string(s)
}

type contextKey string

const (
	loggerContextKey = contextKey("logger")
)

// contextGetHolderId returns the identity every hold and booking of the caller is bound
// to: the session token issued by ensureGuestUserSession.
func (app *Application) contextGetHolderId(r *http.Request) string {
	holderId := app.sessionManager.Token(r.Context())
	if holderId == "" {
		panic("missing session token from context")
	}

	return holderId
}

func contextSetLogger(r *http.Request, logger *slog.Logger) *http.Request {
	ctx := context.WithValue(r.Context(), loggerContextKey, logger)
	return r.WithContext(ctx)
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger, ok := r.Context().Value(loggerContextKey).(*slog.Logger)
	if !ok {
		return app.logger
	}

	return logger
}
