// Package diag provides the diagnostics sink used by BSCP sessions and the
// console logger factory used by the binaries.
//
// A Sink has one method per diagnostic class. Sinks are built on top of a
// pion logging.LoggerFactory so library code never writes to the console
// directly:
//
//	factory := diag.NewConsoleFactory(diag.ConsoleConfig{Level: logging.LogLevelDebug})
//	sink := diag.New(factory, "session")
//	sink.Client("connected from %s", addr)
package diag
