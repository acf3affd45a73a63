package domain

// UserProfile is the read-only projection of a user owned by the
// authentication collaborator.
type UserProfile struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

// Dimensions of a furniture item in centimetres.
type Dimensions struct {
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
	Height float64 `json:"height"`
}

// FurnitureItem mirrors the display attributes returned by the furniture catalog.
type FurnitureItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	ProductType string     `json:"productType"`
	Price       float64    `json:"price"`
	Image       string     `json:"image"`
	Dimensions  Dimensions `json:"dimensions"`
}
