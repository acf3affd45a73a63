package domain

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested design does not exist.
var ErrNotFound = errors.New("design not found")

// Shape enumerates the supported room shapes.
type Shape string

const (
	ShapeRectangular Shape = "rectangular"
	ShapeSquare      Shape = "square"
	ShapeLShaped     Shape = "l-shaped"
	ShapeUShaped     Shape = "u-shaped"
	ShapeOpenPlan    Shape = "open-plan"
)

// Valid reports whether s is one of the known room shapes.
func (s Shape) Valid() bool {
	switch s {
	case ShapeRectangular, ShapeSquare, ShapeLShaped, ShapeUShaped, ShapeOpenPlan:
		return true
	}
	return false
}

// Vector3 is a point or rotation in room space.
type Vector3 struct {
	X float64 `json:"x" bson:"x"`
	Y float64 `json:"y" bson:"y"`
	Z float64 `json:"z" bson:"z"`
}

// RoomDimensions are measured in metres.
type RoomDimensions struct {
	Width  float64 `json:"width" bson:"width"`
	Length float64 `json:"length" bson:"length"`
	Height float64 `json:"height" bson:"height"`
}

// Placement positions one furniture item inside a design. ItemRef is a lookup
// key into the external furniture catalog; the design does not own the item.
type Placement struct {
	ItemRef  string  `json:"itemRef" bson:"itemRef"`
	Position Vector3 `json:"position" bson:"position"`
	Rotation Vector3 `json:"rotation" bson:"rotation"`
	Scale    float64 `json:"scale,omitempty" bson:"scale,omitempty"`
}

// Design is a user-authored room composition.
type Design struct {
	ID          string
	CreatedBy   string
	Name        string
	Description string
	IsPublic    bool
	Shape       Shape
	Room        RoomDimensions
	Placements  []Placement
	Ratings     RatingSet
	// AverageRating and RatingCount are derived from Ratings and only change
	// together with it.
	AverageRating float64
	RatingCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Summary returns the stored aggregate for the design.
func (d Design) Summary() RatingSummary {
	return RatingSummary{Average: d.AverageRating, Count: d.RatingCount}
}
