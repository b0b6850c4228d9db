// Package diag defines the diagnostic model shared by the injection core,
// the scenario loader and the CLI.
//
// # Data model
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form
//     (SEM3200, IO4001, ...).
//   - Message – human oriented text; keep it short and actionable.
//   - Primary span – the point of injection or the offending expression.
//   - Notes – optional secondary spans/messages, e.g. the injection backtrace.
//
// # Emitting diagnostics
//
// Producers use a Reporter so emission is decoupled from storage. The inject
// package builds a ReportBuilder via ReportError/ReportInfo, chains WithNote
// and calls Emit. BagReporter collects into a Bag, which supports sorting and
// deduplication. Rendering lives in internal/diagfmt.
package diag
