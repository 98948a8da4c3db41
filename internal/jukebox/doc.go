// Package jukebox implements the queue orchestration core: blacklist
// partitioning, duplicate detection against live queue snapshots, and the
// [Orchestrator] state machine that drives the playback device through
// stop → clear → enqueue → activate → play with bounded polling and a
// detached activation phase.
//
// The orchestrator owns no state of its own; the device's queue and transport
// state are the single source of truth and are re-polled at every step that
// needs them. Requests for one device funnel through a single worker
// goroutine, so device calls from different requests never interleave, while
// each caller still receives its acknowledgment as soon as the enqueue itself
// has been confirmed.
package jukebox
