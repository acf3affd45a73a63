package domain

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatingSetUpsert(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Hour)

	var set RatingSet
	set, inserted := set.Upsert(RatingEntry{UserID: "a", Value: 4, Date: t0})
	require.True(t, inserted)
	set, inserted = set.Upsert(RatingEntry{UserID: "b", Value: 2, Comment: "meh", Date: t0})
	require.True(t, inserted)
	set, inserted = set.Upsert(RatingEntry{UserID: "a", Value: 5, Comment: "better", Date: t1})
	require.False(t, inserted)

	want := RatingSet{
		{UserID: "a", Value: 5, Comment: "better", Date: t1},
		{UserID: "b", Value: 2, Comment: "meh", Date: t0},
	}
	if diff := cmp.Diff(want, set); diff != "" {
		t.Fatalf("rating set mismatch (-want +got):\n%s", diff)
	}
}

func TestRatingSetUpsertClearsComment(t *testing.T) {
	set := RatingSet{{UserID: "a", Value: 3, Comment: "first"}}
	set, _ = set.Upsert(RatingEntry{UserID: "a", Value: 4})

	entry, ok := set.Find("a")
	require.True(t, ok)
	assert.Equal(t, 4, entry.Value)
	assert.Empty(t, entry.Comment)
}

func TestRatingSetSummary(t *testing.T) {
	tests := []struct {
		name string
		set  RatingSet
		want RatingSummary
	}{
		{"empty", nil, RatingSummary{}},
		{"single", RatingSet{{UserID: "a", Value: 4}}, RatingSummary{Average: 4, Count: 1}},
		{"mixed", RatingSet{{UserID: "a", Value: 5}, {UserID: "b", Value: 2}}, RatingSummary{Average: 3.5, Count: 2}},
		{"thirds", RatingSet{{UserID: "a", Value: 1}, {UserID: "b", Value: 1}, {UserID: "c", Value: 2}}, RatingSummary{Average: 4.0 / 3.0, Count: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.Summary()
			assert.Equal(t, tt.want.Count, got.Count)
			assert.InDelta(t, tt.want.Average, got.Average, 1e-9)
		})
	}
}

func TestRatingSetAverageFollowsFinalValues(t *testing.T) {
	submissions := []RatingEntry{
		{UserID: "a", Value: 1},
		{UserID: "b", Value: 5},
		{UserID: "a", Value: 3},
		{UserID: "c", Value: 4},
		{UserID: "b", Value: 2},
		{UserID: "a", Value: 5},
	}
	var set RatingSet
	for _, s := range submissions {
		set, _ = set.Upsert(s)
	}

	// final per-user values: a=5, b=2, c=4
	summary := set.Summary()
	assert.Equal(t, 3, summary.Count)
	assert.InDelta(t, 11.0/3.0, summary.Average, 1e-9)
	assert.Equal(t, []string{"a", "b", "c"}, set.UserIDs())
}

func TestValidRating(t *testing.T) {
	for _, v := range []int{1, 2, 3, 4, 5} {
		assert.True(t, ValidRating(v), "rating %d should be valid", v)
	}
	for _, v := range []int{-1, 0, 6, 10} {
		assert.False(t, ValidRating(v), "rating %d should be invalid", v)
	}
}

func TestShapeValid(t *testing.T) {
	assert.True(t, ShapeRectangular.Valid())
	assert.True(t, Shape("open-plan").Valid())
	assert.False(t, Shape("round").Valid())
	assert.False(t, Shape("").Valid())
}
