package storage

import (
	"sort"

	"github.com/samber/lo"

	"github.com/diskmesh/diskmesh/internal/disk"
	"github.com/diskmesh/diskmesh/pkg/item"
)

// Report describes the outcome of a withdrawal reconciliation.
type Report struct {
	// Removed is the number of units taken off disks per identity.
	Removed map[item.Identity]int
	// Shortfall is the number of units per identity that were owed but
	// could not be found on any disk.
	Shortfall map[item.Identity]int
	// DisksWritten counts persisted disk payloads.
	DisksWritten int
}

// TotalRemoved returns the units removed across identities.
func (r Report) TotalRemoved() int {
	return lo.Sum(lo.Values(r.Removed))
}

// TotalShortfall returns the units that could not be removed.
func (r Report) TotalShortfall() int {
	return lo.Sum(lo.Values(r.Shortfall))
}

// Deficits returns snapshot-current for every identity whose count dropped.
func Deficits(snapshot, current map[item.Identity]int) map[item.Identity]int {
	out := make(map[item.Identity]int)
	for id, before := range snapshot {
		if diff := before - current[id]; diff > 0 {
			out[id] = diff
		}
	}
	return out
}

// ApplyWithdrawals removes from the network's disks every unit that is in
// snapshot but missing from current. Units are taken in drive, bay, slot
// order. Each modified disk is written once, after all identities have
// been processed. Units that cannot be found are reported as shortfall;
// nothing is fabricated.
func (e *Engine) ApplyWithdrawals(drives []disk.Drive, snapshot, current map[item.Identity]int) Report {
	report := Report{
		Removed:   make(map[item.Identity]int),
		Shortfall: make(map[item.Identity]int),
	}

	deficits := Deficits(snapshot, current)
	if len(deficits) == 0 {
		return report
	}

	ids := lo.Keys(deficits)
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	var refs []*diskRef
	e.visit(drives, func(ref *diskRef) bool {
		refs = append(refs, ref)
		return true
	})

	for _, id := range ids {
		remaining := deficits[id]
		for _, ref := range refs {
			if remaining == 0 {
				break
			}
			remaining = takeFrom(ref, id, remaining)
		}

		if removed := deficits[id] - remaining; removed > 0 {
			report.Removed[id] = removed
		}
		if remaining > 0 {
			report.Shortfall[id] = remaining
			e.logger.Warn().
				Str("identity", id.String()).
				Int("missing", remaining).
				Msg("withdrawal exceeds stored units, media exhausted")
		}
	}

	for _, ref := range refs {
		if ref.dirty && e.flush(ref) {
			report.DisksWritten++
		}
	}

	e.metrics.RecordWithdrawal(report.TotalRemoved(), report.TotalShortfall())
	return report
}

// takeFrom removes up to want units of id from ref's slots and returns how
// many are still owed.
func takeFrom(ref *diskRef, id item.Identity, want int) int {
	for i, s := range ref.slots {
		if want == 0 {
			break
		}
		sid, ok := s.Identity()
		if !ok || sid != id {
			continue
		}
		take := min(want, s.Count)
		ref.slots[i] = s.WithCount(s.Count - take)
		ref.dirty = true
		want -= take
	}
	return want
}
