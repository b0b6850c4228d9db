// Package trace records spans around scenario runs, evaluation passes and
// individual injections.
//
// Tracers are selected by Config (stream, ring or both) and passed either
// explicitly or through a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "apply-effects", 0)
//	defer span.End("")
//
// Levels gate scopes: phase shows driver and pass spans, detail adds one span
// per injection, debug adds per-declaration points.
package trace
