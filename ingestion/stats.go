package ingestion

import "sync/atomic"

// DropReason says why an item left the pipeline without producing records.
type DropReason int

const (
	DropUnavailable DropReason = iota // Upstream never returned a usable payload
	DropDeleted                       // Item is marked deleted
	DropKind                          // Item is neither a story nor a comment
	DropNoURL                         // Story has no link to fetch
	DropFetch                         // Linked page could not be fetched
	DropNoText                        // Nothing left after extraction and cleaning
	DropEmbed                         // Embedding failed
	numDropReasons
)

var dropReasonNames = [numDropReasons]string{
	DropUnavailable: "unavailable",
	DropDeleted:     "deleted",
	DropKind:        "kind",
	DropNoURL:       "no_url",
	DropFetch:       "fetch",
	DropNoText:      "no_text",
	DropEmbed:       "embed",
}

func (r DropReason) String() string {
	if r < 0 || r >= numDropReasons {
		return "unknown"
	}
	return dropReasonNames[r]
}

// Stats tracks pipeline outcomes. All methods are safe for concurrent use,
// and a nil *Stats discards updates.
type Stats struct {
	resolved       atomic.Int64
	stories        atomic.Int64
	comments       atomic.Int64
	storyRecords   atomic.Int64
	commentRecords atomic.Int64
	drops          [numDropReasons]atomic.Int64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Resolved       int64
	Stories        int64 // Stories that produced records
	Comments       int64 // Comments that produced records
	StoryRecords   int64
	CommentRecords int64
	Dropped        map[string]int64
}

func (s *Stats) drop(reason DropReason) {
	if s == nil || reason < 0 || reason >= numDropReasons {
		return
	}
	s.drops[reason].Add(1)
}

func (s *Stats) resolvedItem() {
	if s != nil {
		s.resolved.Add(1)
	}
}

func (s *Stats) story(records int) {
	if s != nil {
		s.stories.Add(1)
		s.storyRecords.Add(int64(records))
	}
}

func (s *Stats) comment(records int) {
	if s != nil {
		s.comments.Add(1)
		s.commentRecords.Add(int64(records))
	}
}

// Dropped returns the number of drops recorded for reason.
func (s *Stats) Dropped(reason DropReason) int64 {
	if s == nil || reason < 0 || reason >= numDropReasons {
		return 0
	}
	return s.drops[reason].Load()
}

// Snapshot copies the current counters.
func (s *Stats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{Dropped: make(map[string]int64, numDropReasons)}
	if s == nil {
		return snap
	}
	snap.Resolved = s.resolved.Load()
	snap.Stories = s.stories.Load()
	snap.Comments = s.comments.Load()
	snap.StoryRecords = s.storyRecords.Load()
	snap.CommentRecords = s.commentRecords.Load()
	for r := DropReason(0); r < numDropReasons; r++ {
		if n := s.drops[r].Load(); n > 0 {
			snap.Dropped[r.String()] = n
		}
	}
	return snap
}

// TotalDropped sums drops over every reason.
func (s StatsSnapshot) TotalDropped() int64 {
	var n int64
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// LogAttrs returns the snapshot as slog key-value pairs.
func (s StatsSnapshot) LogAttrs() []any {
	return []any{
		"resolved", s.Resolved,
		"stories", s.Stories,
		"comments", s.Comments,
		"story_records", s.StoryRecords,
		"comment_records", s.CommentRecords,
		"dropped", s.TotalDropped(),
		"drops", s.Dropped,
	}
}
