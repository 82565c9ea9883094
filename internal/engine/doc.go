// Package engine implements the terminal output streaming and
// resize-coordination engine that sits between an asynchronous process
// output channel and a grid-based terminal renderer.
//
// The engine solves three problems at once:
//   - Rendering is batched to the host's repaint cadence: many output
//     chunks arriving between frames are coalesced into a single sink
//     write, so the renderer repaints once per frame instead of once
//     per chunk.
//   - Memory stays bounded when the producer outruns the consumer: the
//     write queue is capped, and overflow triggers a bulk compaction
//     that discards the oldest half of the queue in one step. The loss
//     is deliberate and is surfaced through dropped-bytes counters.
//   - Teardown is race-free: Dispose is idempotent, and once it
//     returns no sink write, fit computation, or resize callback can
//     run, even if a frame callback was already queued.
//
// Data flow:
//
//	DeliverOutput → write queue → (frame scheduler) → Sink.Write
//
// The resize coordinator runs independently, driven by a geometry
// notifier; it recomputes the grid fit, de-duplicates the result, and
// publishes size changes through the OnResize callback.
//
// One Engine serves exactly one terminal instance. Engines are safe
// for concurrent use, but the externally supplied callbacks run on the
// engine's internal timeline and must not call back into the engine.
package engine
