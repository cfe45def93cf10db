// Package ingestion turns batches of Hacker News item ids into index records.
//
// A Pipeline processes one wake's worth of ids at a time:
//   - ids are resolved to items concurrently on a worker pool, retrying
//     items the upstream has not finished publishing
//   - each resolved item is routed by kind to the story or comment branch
//   - story workers fetch the linked page, extract and chunk its text,
//     embed the chunks and write them to the story collection
//   - comment workers walk the parent chain to the root story, clean and
//     chunk the comment text, embed it and write it to the comment collection
//
// Every stage failure drops only the item at hand. Drops are logged and
// counted in Stats; they are never returned to the caller.
package ingestion
