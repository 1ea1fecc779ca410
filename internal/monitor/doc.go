// Package monitor implements the sampling engine behind the dashboard.
//
// # Key Components
//
//	Engine      - Runs one sampling cycle across all samplers and owns every Series
//	Notifier    - Fan-out change notification for cycle completions and selection changes
//	Controller  - Tracks the selected family and resolves its detail rows
//	Scheduler   - Drives cycles at a fixed interval; the first cycle calibrates
//
// # Cycle
//
// Samplers run one after another inside a cycle, so cross-family skew is
// bounded by the slowest sampler (the CPU load window). A sampler that
// errors or panics is logged and skipped; its Series keeps its previous
// contents and the rest of the cycle proceeds.
//
// # Snapshots
//
// The engine is the only writer. Readers never see a Series directly:
// after each cycle the engine builds an immutable model.Snapshot and swaps
// it in atomically, then notifies subscribers. A reader therefore sees data
// at most one interval old and never a buffer mid-update.
//
// # Lifecycle
//
//	Idle        - no cycle has run
//	Calibrating - the first cycle; CPU thresholds and RAM total are captured
//	Streaming   - every later cycle
package monitor
