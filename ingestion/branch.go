package ingestion

import (
	"context"

	"github.com/poiesic/hnstream/core"
	"github.com/poiesic/hnstream/vectorindex"
)

// routed is the router's output: exactly one of storyItem or commentItem.
type routed interface {
	isRouted()
}

type storyItem struct{ item core.Item }

type commentItem struct{ item core.Item }

func (storyItem) isRouted()   {}
func (commentItem) isRouted() {}

// route selects the branch for a resolved item by its kind.
func route(item core.Item) routed {
	if item.Kind == core.KindStory {
		return storyItem{item: item}
	}
	return commentItem{item: item}
}

// storyWorker drains the story channel into its own batcher until the
// channel is closed, then flushes.
func (p *Pipeline) storyWorker(ctx context.Context, in <-chan core.Item) error {
	batcher := vectorindex.NewBatcher(p.stories, p.batchSize)
	for item := range in {
		story, ok := p.enrichStory(ctx, item)
		if !ok {
			continue
		}
		records := core.StoryRecords(p.keyPrefix, story)
		p.stats.story(len(records))
		p.logger.Debug("story enriched", "id", story.ID, "title", story.Title, "chunks", len(story.Chunks))
		batcher.Add(ctx, records)
	}
	batcher.Flush(ctx)
	return nil
}

// commentWorker drains the comment channel into its own batcher until the
// channel is closed, then flushes.
func (p *Pipeline) commentWorker(ctx context.Context, in <-chan core.Item) error {
	batcher := vectorindex.NewBatcher(p.comments, p.batchSize)
	for item := range in {
		comment, ok := p.enrichComment(ctx, item)
		if !ok {
			continue
		}
		records := core.CommentRecords(p.keyPrefix, comment)
		p.stats.comment(len(records))
		p.logger.Debug("comment enriched", "id", comment.ID, "root_id", comment.RootID, "chunks", len(comment.Chunks))
		batcher.Add(ctx, records)
	}
	batcher.Flush(ctx)
	return nil
}

func (p *Pipeline) enrichStory(ctx context.Context, item core.Item) (core.Story, bool) {
	story := core.Story{Item: item}

	if story.URL == "" {
		p.dropped(ctx, item.ID, DropNoURL, nil)
		return core.Story{}, false
	}

	content, err := p.pages.Fetch(ctx, story.URL)
	if err != nil {
		p.dropped(ctx, item.ID, DropFetch, err)
		return core.Story{}, false
	}
	story.Content = content

	chunks, err := p.text.PrepareStory(ctx, content)
	if err != nil {
		p.dropped(ctx, item.ID, DropNoText, err)
		return core.Story{}, false
	}
	story.Chunks = chunks

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		p.dropped(ctx, item.ID, DropEmbed, err)
		return core.Story{}, false
	}
	story.Embeddings = vectors
	return story, true
}

func (p *Pipeline) enrichComment(ctx context.Context, item core.Item) (core.Comment, bool) {
	comment := p.ancestors.ResolveRoot(ctx, item)

	chunks, err := p.text.PrepareComment(item.Text)
	if err != nil {
		p.dropped(ctx, item.ID, DropNoText, err)
		return core.Comment{}, false
	}
	comment.Chunks = chunks

	vectors, err := p.embedder.Embed(ctx, chunks)
	if err != nil {
		p.dropped(ctx, item.ID, DropEmbed, err)
		return core.Comment{}, false
	}
	comment.Embeddings = vectors
	return comment, true
}

// dropped records a stage failure. Failures caused by shutdown are not counted.
func (p *Pipeline) dropped(ctx context.Context, id int64, reason DropReason, err error) {
	if ctx.Err() != nil {
		return
	}
	p.stats.drop(reason)
	attrs := []any{"id", id, "reason", reason}
	if err != nil {
		attrs = append(attrs, "err", err)
	}
	p.logger.Warn("dropping item", attrs...)
}
