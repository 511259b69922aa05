// Package scheduler is the dataflow core: a keyed DataCache, the Task
// contract, an ordered TaskFactorySet, and the Scheduler that ties
// them together into a bounded sliding-window evaluation loop over a
// sequence of ingested frames.
package scheduler

// FrameType is the reserved DataItem type used for the frame payload
// itself, inserted by Scheduler.AddFrame before any task factory runs.
const FrameType = "FRAME"

// DataKey identifies a single DataItem: a product kind plus the frame
// it belongs to.
type DataKey struct {
	Type    string
	FrameID uint64
}

// DataItem is one unit of data held by the DataCache: a (type,
// frame_id, payload) record plus a touch counter incremented once per
// consuming task evaluation, used only to flag dead products on
// eviction (spec §4.1) - it has no bearing on scheduling correctness.
type DataItem struct {
	Type    string
	FrameID uint64
	Payload any

	touched uint32
}

// Key derives the DataKey this item is stored under.
func (d *DataItem) Key() DataKey { return DataKey{Type: d.Type, FrameID: d.FrameID} }

// Touched reports how many times this item has been consumed.
func (d *DataItem) Touched() uint32 { return d.touched }

func (d *DataItem) touch() { d.touched++ }

// RequestKey describes one input a Task needs. It has two shapes: a
// required key, which blocks the task until that exact (type,
// frame_id) exists, and an optional-with-default key, whose default
// payload is substituted if the cache has no match by the time the
// task is evaluated (a cache hit always wins over the default - spec
// §9's resolved open question).
type RequestKey struct {
	Type       string
	FrameID    uint64
	Default    any
	HasDefault bool
}

// Required builds a RequestKey the task cannot run without.
func Required(typ string, frameID uint64) RequestKey {
	return RequestKey{Type: typ, FrameID: frameID}
}

// OptionalWithDefault builds a RequestKey that falls back to def if
// no matching item exists in the cache when the task is evaluated.
func OptionalWithDefault(typ string, frameID uint64, def any) RequestKey {
	return RequestKey{Type: typ, FrameID: frameID, Default: def, HasDefault: true}
}

func (k RequestKey) dataKey() DataKey { return DataKey{Type: k.Type, FrameID: k.FrameID} }

// Produced is the (type, frame_id, payload) triple returned by a
// Task's Execute for each new data item it creates. Produced items
// need not share the task's own FrameID - cross-frame products are
// permitted (spec §3).
type Produced struct {
	Type    string
	FrameID uint64
	Payload any
}
