package scheduler

import "github.com/hbomb79/vtm/pkg/logger"

// DataCache is a keyed store of DataItems. It has exactly one owner -
// the Scheduler - and is never touched concurrently (spec §5), so it
// carries no internal locking.
type DataCache struct {
	items map[DataKey]*DataItem
}

func NewDataCache() *DataCache {
	return &DataCache{items: make(map[DataKey]*DataItem)}
}

// Put installs item at its key, replacing any prior occupant
// (last-writer-wins; spec §4.1 treats a collision here as
// misconfiguration, not something to guard against).
func (c *DataCache) Put(item *DataItem) {
	c.items[item.Key()] = item
}

// Get returns the item stored at key, if any.
func (c *DataCache) Get(key DataKey) (*DataItem, bool) {
	item, ok := c.items[key]
	return item, ok
}

// Touch increments the touch counter of the item at key. A no-op if
// the key is absent.
func (c *DataCache) Touch(key DataKey) {
	if item, ok := c.items[key]; ok {
		item.touch()
	}
}

// Len reports how many items are currently cached.
func (c *DataCache) Len() int { return len(c.items) }

// EvictOlderThan removes every item whose FrameID is below threshold.
// Any removed item that was never touched is logged as a dead product
// warning (spec §4.1) via log.
func (c *DataCache) EvictOlderThan(threshold uint64, log logger.Logger) {
	for key, item := range c.items {
		if item.FrameID < threshold {
			if item.touched == 0 {
				log.Emit(logger.WARNING, "data item %s/%d evicted but was never used\n", item.Type, item.FrameID)
			}
			delete(c.items, key)
		}
	}
}
