package aggregator

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/atikulmunna/droidlog/internal/model"
	"github.com/atikulmunna/droidlog/internal/output"
)

const epsWindow = 5 * time.Second

// epsBuckets is the number of one-second counters covering epsWindow.
const epsBuckets = int(epsWindow / time.Second)

// bucket counts the lines rendered during one wall-clock second.
type bucket struct {
	sec int64
	n   int64
}

// Stats holds a point-in-time snapshot of a rendering session.
type Stats struct {
	Uptime      time.Duration
	Rendered    int64
	Noise       int64
	Rejected    int64
	Filtered    int64
	WriteFailed int64
	EPS         float64
	LevelCounts map[string]int64
	TopTags     []TagCount
}

// TagCount is the number of rendered lines for one tag.
type TagCount struct {
	Tag   string
	Count int64
}

// Aggregator counts the outcome of every line handed to the renderer.
// Record is called from the render loop; Snapshot may be called from any
// goroutine.
type Aggregator struct {
	mu          sync.RWMutex
	now         func() time.Time
	startTime   time.Time
	stats       Stats
	tagCounts   map[string]int64
	window      [epsBuckets]bucket
	topTagLimit int
}

// New creates an empty Aggregator. Snapshots list at most topTags tags.
func New(topTags int) *Aggregator {
	return newWithClock(topTags, time.Now)
}

func newWithClock(topTags int, now func() time.Time) *Aggregator {
	return &Aggregator{
		now:         now,
		startTime:   now(),
		stats:       Stats{LevelCounts: make(map[string]int64)},
		tagCounts:   make(map[string]int64),
		topTagLimit: topTags,
	}
}

// Record classifies one render outcome. rec is only inspected for lines
// that were rendered or failed to write.
func (a *Aggregator) Record(rec model.Record, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case err == nil:
		a.stats.Rendered++
		a.stats.LevelCounts[rec.Level]++
		a.tagCounts[rec.Tag]++
		a.count(a.now())
	case errors.Is(err, output.ErrNoise):
		a.stats.Noise++
	case errors.Is(err, output.ErrParseRejected):
		a.stats.Rejected++
	case errors.Is(err, output.ErrFilteredOut):
		a.stats.Filtered++
	case errors.Is(err, output.ErrWriteFailed):
		a.stats.WriteFailed++
	}
}

// Snapshot returns the current counts.
func (a *Aggregator) Snapshot() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	s := a.stats
	now := a.now()
	s.Uptime = now.Sub(a.startTime).Truncate(time.Second)

	s.LevelCounts = make(map[string]int64, len(a.stats.LevelCounts))
	for k, v := range a.stats.LevelCounts {
		s.LevelCounts[k] = v
	}

	sec := now.Unix()
	var recent int64
	for _, b := range a.window {
		if b.sec > sec-int64(epsBuckets) && b.sec <= sec {
			recent += b.n
		}
	}
	s.EPS = float64(recent) / epsWindow.Seconds()

	s.TopTags = a.topTags()
	return s
}

// topTags returns the busiest tags, ties broken by name.
func (a *Aggregator) topTags() []TagCount {
	tags := make([]TagCount, 0, len(a.tagCounts))
	for tag, n := range a.tagCounts {
		tags = append(tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if a.topTagLimit >= 0 && len(tags) > a.topTagLimit {
		tags = tags[:a.topTagLimit]
	}
	return tags
}

// count adds one render to the bucket for now, reusing the slot of a
// second that has left the window. Callers hold mu.
func (a *Aggregator) count(now time.Time) {
	sec := now.Unix()
	b := &a.window[((sec%int64(epsBuckets))+int64(epsBuckets))%int64(epsBuckets)]
	if b.sec != sec {
		b.sec = sec
		b.n = 0
	}
	b.n++
}
