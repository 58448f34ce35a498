package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type item struct {
	ID   uint64
	Name string
}

func itemID(i item) uint64 { return i.ID }

func TestDiff_MixedSubmission(t *testing.T) {
	current := []item{{ID: 1, Name: "flour"}, {ID: 2, Name: "sugar"}}
	incoming := []item{{ID: 1, Name: "whole flour"}, {Name: "new"}}

	plan := Diff(current, incoming, itemID)

	assert.Equal(t, []item{{Name: "new"}}, plan.Create)
	assert.Equal(t, []item{{ID: 1, Name: "whole flour"}}, plan.Update)
	assert.Equal(t, []uint64{2}, plan.Delete)
	assert.Empty(t, plan.Unknown)
	// final set size = updates + creates
	assert.Len(t, append(plan.Update, plan.Create...), 2)
}

func TestDiff_EmptySubmissionDeletesEverything(t *testing.T) {
	current := []item{{ID: 4}, {ID: 5}, {ID: 6}}

	plan := Diff(current, nil, itemID)

	assert.Empty(t, plan.Create)
	assert.Empty(t, plan.Update)
	assert.Equal(t, []uint64{4, 5, 6}, plan.Delete)
}

func TestDiff_NothingStored(t *testing.T) {
	plan := Diff(nil, []item{{Name: "a"}, {Name: "b"}}, itemID)

	assert.Len(t, plan.Create, 2)
	assert.Empty(t, plan.Delete)
	assert.False(t, plan.Empty())
}

func TestDiff_UnknownIDsAreReported(t *testing.T) {
	current := []item{{ID: 1}}
	incoming := []item{{ID: 1}, {ID: 99, Name: "someone else's"}}

	plan := Diff(current, incoming, itemID)

	assert.Equal(t, []uint64{99}, plan.Unknown)
	assert.Len(t, plan.Update, 1)
	assert.Empty(t, plan.Delete)
}

func TestDiff_DuplicateIDUpdatedOnce(t *testing.T) {
	current := []item{{ID: 3, Name: "salt"}}
	incoming := []item{{ID: 3, Name: "first"}, {ID: 3, Name: "second"}}

	plan := Diff(current, incoming, itemID)

	assert.Equal(t, []item{{ID: 3, Name: "first"}}, plan.Update)
	assert.Empty(t, plan.Delete)
}

func TestPlan_Empty(t *testing.T) {
	var p Plan[item]
	assert.True(t, p.Empty())
}
