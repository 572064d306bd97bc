// Package storage aggregates, withdraws from and deposits into the disks of
// a drive network.
package storage

import (
	"github.com/rs/zerolog"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/internal/metrics"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Options configures an Engine.
type Options struct {
	Media   *disk.Media
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Engine runs storage operations over a list of drives. Drives are scanned
// in list order, bays in index order, slots in payload order.
type Engine struct {
	media   *disk.Media
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewEngine creates an Engine. A nil Media uses disk defaults with no catalog.
func NewEngine(opts Options) *Engine {
	if opts.Media == nil {
		opts.Media = disk.NewMedia(disk.Options{Logger: opts.Logger, Metrics: opts.Metrics})
	}
	return &Engine{
		media:   opts.Media,
		logger:  opts.Logger,
		metrics: opts.Metrics,
	}
}

// Media returns the disk media used by the engine.
func (e *Engine) Media() *disk.Media {
	return e.media
}

// Metrics returns the engine's metrics, possibly nil.
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// diskRef is one loaded disk in a drive bay.
type diskRef struct {
	drive disk.Drive
	bay   int
	disk  item.Stack
	slots []item.Stack
	dirty bool
}

// visit loads each disk in the network in scan order and calls fn with it.
// fn returns false to stop.
func (e *Engine) visit(drives []disk.Drive, fn func(ref *diskRef) bool) {
	for _, d := range drives {
		bays := d.Bays()
		for i := 0; i < e.media.ScanLen(bays); i++ {
			slots, ok := e.media.Load(bays[i])
			if !ok {
				continue
			}
			if !fn(&diskRef{drive: d, bay: i, disk: bays[i], slots: slots}) {
				return
			}
		}
	}
}

// flush persists a modified disk back into its bay.
func (e *Engine) flush(ref *diskRef) bool {
	saved, err := e.media.Save(ref.disk, ref.slots)
	if err != nil {
		e.logger.Error().
			Err(err).
			Str("drive", ref.drive.ID()).
			Int("bay", ref.bay).
			Msg("failed to write disk payload")
		return false
	}
	ref.drive.SetBay(ref.bay, saved)
	ref.disk = saved
	ref.dirty = false
	return true
}

// Aggregate returns everything stored in the network as one list: quality-0
// stacks merged by identity (counts may exceed a normal stack size) in the
// order first seen, followed by every quality>0 stack unmerged.
func (e *Engine) Aggregate(drives []disk.Drive) []item.Stack {
	var (
		order   []item.Identity
		merged  = make(map[item.Identity]item.Stack)
		quality []item.Stack
	)

	e.visit(drives, func(ref *diskRef) bool {
		for _, s := range ref.slots {
			if s.IsEmpty() {
				continue
			}
			if s.Value.Quality > 0 {
				quality = append(quality, s.Clone())
				continue
			}
			id := item.IdentityOf(s.Value)
			acc, ok := merged[id]
			if !ok {
				order = append(order, id)
				merged[id] = s.Clone()
				continue
			}
			acc.Count += s.Count
			merged[id] = acc
		}
		return true
	})

	out := make([]item.Stack, 0, len(order)+len(quality))
	for _, id := range order {
		out = append(out, merged[id])
	}
	return append(out, quality...)
}

// CountByIdentity sums the counts of non-empty stacks per identity.
func CountByIdentity(stacks []item.Stack) map[item.Identity]int {
	counts := make(map[item.Identity]int)
	for _, s := range stacks {
		id, ok := s.Identity()
		if !ok {
			continue
		}
		counts[id] += s.Count
	}
	return counts
}
