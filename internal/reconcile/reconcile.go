// Package reconcile computes the create/update/delete sets needed to turn a
// stored child collection into a submitted one. Submissions are full
// replacements: any stored item whose id is not resubmitted is deleted.
package reconcile

// Plan is the outcome of Diff for one collection.
type Plan[T any] struct {
	// Create holds submitted items without an id.
	Create []T
	// Update holds submitted items whose id exists in the stored set.
	Update []T
	// Delete holds stored ids that were not resubmitted, in stored order.
	Delete []uint64
	// Unknown holds submitted ids that are not part of the stored set.
	Unknown []uint64
}

// Empty reports whether applying the plan would change nothing.
func (p Plan[T]) Empty() bool {
	return len(p.Create) == 0 && len(p.Update) == 0 && len(p.Delete) == 0
}

// Diff partitions incoming against current. idOf returns 0 for items that
// carry no identity. An id submitted twice is updated once, using the first
// occurrence.
func Diff[T any](current, incoming []T, idOf func(T) uint64) Plan[T] {
	stored := make(map[uint64]bool, len(current))
	for _, c := range current {
		stored[idOf(c)] = true
	}

	var plan Plan[T]
	kept := make(map[uint64]bool, len(incoming))
	for _, in := range incoming {
		id := idOf(in)
		switch {
		case id == 0:
			plan.Create = append(plan.Create, in)
		case !stored[id]:
			plan.Unknown = append(plan.Unknown, id)
		case kept[id]:
			// duplicate submission of the same row
		default:
			kept[id] = true
			plan.Update = append(plan.Update, in)
		}
	}
	for _, c := range current {
		if id := idOf(c); !kept[id] {
			plan.Delete = append(plan.Delete, id)
		}
	}
	return plan
}
