// Package models defines domain entities for the jukebot queue orchestration service.
//
// The package contains two categories of types:
//
// 1. Catalog and device snapshots: immutable data returned by remote collaborators
//   - [CatalogItem] : A track, album, or playlist resolved from the music catalog
//   - [QueueItem] : One slot in the playback device's live queue
//   - [DeviceState] : Transport state polled from the playback device
//
// 2. Orchestration messages: inputs and outputs of the queue orchestrator
//   - [OrchestrationRequest] : One user-triggered intent to mutate the device queue
//   - [OrchestrationOutcome] : The synchronous acknowledgment returned to the caller
//
// Persistent entities (blacklist entries) implement the Model interface providing
// ID generation, timestamps, and validation. The Repository[T] interface defines
// standard CRUD operations for database access.
package models
