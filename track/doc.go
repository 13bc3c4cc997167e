// Package track is the client-side instrumentation layer of the CyberKPI
// pipeline. It derives a stable anonymous session identity from two
// independent stores, captures the awareness-funnel interactions of one
// page load (arrival, call-to-action click, typing onset, modal,
// training links) behind one-shot latches, and delivers events to the
// collector on a best-effort, fire-and-forget basis. Nothing in this
// package ever surfaces an error to the page flow.
package track
