package bleport

// ErrorHandler receives errors raised on paths that have no caller to
// return to, such as transport pump goroutines and deferred dispatch.
type ErrorHandler func(error)

// LoggingErrorHandler is the default handler: it reports through the
// package logger and carries on.
func LoggingErrorHandler(err error) {
	if err == nil {
		return
	}
	GetLogger().Errorf("async error: %v", err)
}
