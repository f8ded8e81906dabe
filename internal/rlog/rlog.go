// Package rlog is the small logging helper every package in this module
// takes through its Options struct, the same way github.com/saferwall/pe
// threads a *log.Logger through pe.Options.Logger. No structured-logging
// library appears anywhere in the reference pack this module was built
// from, so this wraps the standard library's log/slog instead of reaching
// for zap/zerolog/logrus.
package rlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is the minimal surface every component needs. A caller that
// already owns a *slog.Logger, a no-op logger, or a test recorder can all
// satisfy this without pulling in this package's concrete type.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Helper wraps a Logger with a fixed module prefix, mirroring the
// log.Helper pattern referenced (but not vendored) by saferwall/pe's
// file.go options.
type Helper struct {
	log    Logger
	module string
}

// NewHelper returns a Helper that prefixes every message with module.
func NewHelper(log Logger, module string) *Helper {
	if log == nil {
		log = Discard
	}
	return &Helper{log: log, module: module}
}

func (h *Helper) Debugf(format string, args ...any) { h.log.Debugf(h.module+": "+format, args...) }
func (h *Helper) Infof(format string, args ...any)  { h.log.Infof(h.module+": "+format, args...) }
func (h *Helper) Warnf(format string, args ...any)  { h.log.Warnf(h.module+": "+format, args...) }
func (h *Helper) Errorf(format string, args ...any) { h.log.Errorf(h.module+": "+format, args...) }

type slogLogger struct{ l *slog.Logger }

// NewStdLogger adapts a log/slog.Logger (or slog.Default() if nil) to
// Logger.
func NewStdLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return slogLogger{l: l}
}

func (s slogLogger) Debugf(format string, args ...any) { s.l.Debug(fmtSprintf(format, args...)) }
func (s slogLogger) Infof(format string, args ...any)  { s.l.Info(fmtSprintf(format, args...)) }
func (s slogLogger) Warnf(format string, args ...any)  { s.l.Warn(fmtSprintf(format, args...)) }
func (s slogLogger) Errorf(format string, args ...any) { s.l.Error(fmtSprintf(format, args...)) }

// discardLogger drops every message; used when callers pass no logger.
type discardLogger struct{}

func (discardLogger) Debugf(string, ...any) {}
func (discardLogger) Infof(string, ...any)  {}
func (discardLogger) Warnf(string, ...any)  {}
func (discardLogger) Errorf(string, ...any) {}

// Discard is the zero-value Logger used when Options.Logger is nil.
var Discard Logger = discardLogger{}

// NewTextLogger returns a Logger that writes leveled text lines to w, for
// CLI tools that want readable output without a full slog handler setup.
func NewTextLogger(w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}
	return NewStdLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})))
}

func fmtSprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
