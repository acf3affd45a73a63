package domain

import "time"

const (
	MinRating = 1
	MaxRating = 5
)

// RatingEntry is a single user's rating of a design.
type RatingEntry struct {
	UserID  string    `json:"userId" bson:"userId"`
	Value   int       `json:"value" bson:"value"`
	Comment string    `json:"comment" bson:"comment"`
	Date    time.Time `json:"date" bson:"date"`
}

// RatingSummary provides average and count for a design's ratings.
type RatingSummary struct {
	Average float64
	Count   int
}

// RatingSet holds at most one entry per user, in insertion order.
type RatingSet []RatingEntry

// ValidRating reports whether value is inside the accepted range.
func ValidRating(value int) bool {
	return value >= MinRating && value <= MaxRating
}

// Upsert replaces the entry belonging to entry.UserID in place, or appends it
// when the user has not rated yet. The returned bool is true on append.
func (s RatingSet) Upsert(entry RatingEntry) (RatingSet, bool) {
	for i := range s {
		if s[i].UserID == entry.UserID {
			s[i].Value = entry.Value
			s[i].Comment = entry.Comment
			s[i].Date = entry.Date
			return s, false
		}
	}
	return append(s, entry), true
}

// Find returns the entry for userID if one exists.
func (s RatingSet) Find(userID string) (RatingEntry, bool) {
	for _, e := range s {
		if e.UserID == userID {
			return e, true
		}
	}
	return RatingEntry{}, false
}

// Summary computes the arithmetic mean and count. An empty set averages 0.
func (s RatingSet) Summary() RatingSummary {
	if len(s) == 0 {
		return RatingSummary{}
	}
	total := 0
	for _, e := range s {
		total += e.Value
	}
	return RatingSummary{
		Average: float64(total) / float64(len(s)),
		Count:   len(s),
	}
}

// UserIDs lists the distinct raters in set order.
func (s RatingSet) UserIDs() []string {
	ids := make([]string, 0, len(s))
	for _, e := range s {
		ids = append(ids, e.UserID)
	}
	return ids
}
