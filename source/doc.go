// Package source implements the polling source that turns the upstream's
// growing max item id into ordered batches of ids.
//
// The source owns a single cursor: the next id that has not been emitted.
// On each wake it asks the upstream for the current max id and emits every
// id from the cursor up to, but not including, that max. Consecutive wakes
// therefore cover the id space with no gaps and no repeats. The cursor is
// exposed through Checkpoint so the caller can persist it once a batch has
// been processed, and supplied back to New on restart.
//
// Only one source may own a cursor at a time; the partition is always
// named Partition.
package source
