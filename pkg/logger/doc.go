// Package logger provides structured logging for friendtrack built on
// zerolog.
//
// A single Logger interface backs three implementations: the zerolog-based
// production logger with a pretty console writer and optional rotating file
// output (lumberjack), a capture logger for tests (NewTestLogger), and a
// no-op logger (NewNopLogger).
//
// Components receive a Logger through their constructors; the package-level
// functions operate on a process-wide logger set up by Initialize from the
// logging section of the configuration.
package logger
