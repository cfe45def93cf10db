package core

import "strconv"

// StoryRecords flattens a story into one index record per chunk.
// Chunks without a matching embedding are skipped.
func StoryRecords(prefix string, s Story) []IndexRecord {
	records := make([]IndexRecord, 0, len(s.Embeddings))
	for i, vec := range s.Embeddings {
		if i >= len(s.Chunks) {
			break
		}
		records = append(records, IndexRecord{
			KeyID:       RecordKey(prefix, KindStory, s.ID, i),
			ID:          s.ID,
			By:          s.By,
			Time:        s.Time,
			Type:        KindStory.String(),
			Text:        s.Chunks[i],
			Embedding:   vec,
			Title:       s.Title,
			URL:         s.URL,
			Score:       s.Score,
			Descendants: s.Descendants,
		})
	}
	return records
}

// CommentRecords flattens a comment into one index record per chunk.
func CommentRecords(prefix string, c Comment) []IndexRecord {
	var parent int64
	if c.Parent != nil {
		parent = *c.Parent
	}
	rootID := strconv.FormatInt(c.RootID, 10)

	records := make([]IndexRecord, 0, len(c.Embeddings))
	for i, vec := range c.Embeddings {
		if i >= len(c.Chunks) {
			break
		}
		records = append(records, IndexRecord{
			KeyID:     RecordKey(prefix, KindComment, c.ID, i),
			ID:        c.ID,
			By:        c.By,
			Time:      c.Time,
			Type:      KindComment.String(),
			Text:      c.Chunks[i],
			Embedding: vec,
			Parent:    parent,
			RootID:    rootID,
		})
	}
	return records
}
