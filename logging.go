package transfer

import (
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Logger is the logging interface the engine writes through. go-kit/log's
// log.Logger already satisfies this, and level.NewFilter(logger, ...)
// composes with it directly.
type Logger = log.Logger

// NewDefaultLogger returns the engine's baseline logger: logfmt to
// stderr, timestamped, filtered to info level and above.
func NewDefaultLogger() Logger {
	l := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	l = log.With(l, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)
	return level.NewFilter(l, level.AllowInfo())
}

func loggerOrDefault(l Logger) Logger {
	if l == nil {
		return NewDefaultLogger()
	}
	return l
}

func logSubmit(l Logger, h Handle, typ Type) {
	level.Debug(l).Log("msg", "submission queued", "handle", h, "type", typ.String())
}

func logDispatch(l Logger, h Handle, slot int) {
	level.Debug(l).Log("msg", "submission dispatched", "handle", h, "slot", slot)
}

func logSubmitError(l Logger, h Handle, err error) {
	level.Error(l).Log("msg", "submission failed", "handle", h, "err", err)
}

func logShutdown(l Logger, pending int) {
	level.Info(l).Log("msg", "shutdown requested", "pending_requests", pending)
}
