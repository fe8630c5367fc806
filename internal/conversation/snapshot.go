package conversation

import "slices"

// Latest returns the record with the greatest CreatedAt. Records sharing the
// greatest timestamp resolve to the one received last. Snapshots are never merged.
func Latest(records []Record) (Record, bool) {
	if len(records) == 0 {
		return Record{}, false
	}
	best := records[0]
	for _, r := range records[1:] {
		if !r.CreatedAt.Before(best.CreatedAt) {
			best = r
		}
	}
	return best, true
}

// ChatHistory keeps only chat transcript snapshots, preserving order.
func ChatHistory(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.IsChatHistory() {
			out = append(out, r)
		}
	}
	return out
}

// NewestFirst returns a copy of records sorted by CreatedAt descending.
// Equal timestamps keep their received order.
func NewestFirst(records []Record) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// Without returns a copy of records minus the one with the given id.
func Without(records []Record, id string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
