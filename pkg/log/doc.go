// Package log provides logbook's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records are handled by log/slog through
// a bridge handler that routes them to a Formatter and one or more Outputs,
// so components share one output format regardless of where they log from.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("journal"), log.Str("logType", id))
//	l.Info("log committed", log.Str("revision", rev))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config: level, text or JSON
// formatting, and console, file or null output.
//
// # Interop
//
// RedirectStdLog routes the standard library logger through a Logger, and
// ToStdLogger returns a *log.Logger for libraries that want one.
package log
