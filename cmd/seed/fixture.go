package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/Clark-Hu/room-catalog/internal/domain"
)

type fixture struct {
	Users   []fixtureUser   `json:"users"`
	Designs []fixtureDesign `json:"designs"`
}

type fixtureUser struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type fixtureRating struct {
	UserID  string `json:"userId"`
	Value   int    `json:"value"`
	Comment string `json:"comment"`
}

type fixtureDesign struct {
	Name        string                `json:"name"`
	Description string                `json:"description"`
	CreatedBy   string                `json:"createdBy"`
	IsPublic    bool                  `json:"isPublic"`
	Shape       domain.Shape          `json:"shape"`
	Room        domain.RoomDimensions `json:"room"`
	Placements  []domain.Placement    `json:"furniturePlacements"`
	CreatedAt   *time.Time            `json:"createdAt"`
	Ratings     []fixtureRating       `json:"ratings"`
}

func (u fixtureUser) profile() domain.UserProfile {
	return domain.UserProfile{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
}

func loadFixture(path string) (fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	var fx fixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		return fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	if err := fx.validate(); err != nil {
		return fixture{}, err
	}
	return fx, nil
}

func (fx fixture) validate() error {
	for i, u := range fx.Users {
		if u.ID == "" {
			return fmt.Errorf("users[%d]: id is required", i)
		}
	}
	for i, d := range fx.Designs {
		if d.Name == "" || d.CreatedBy == "" {
			return fmt.Errorf("designs[%d]: name and createdBy are required", i)
		}
		if !d.Shape.Valid() {
			return fmt.Errorf("designs[%d]: unknown shape %q", i, d.Shape)
		}
		for j, r := range d.Ratings {
			if r.UserID == "" || !domain.ValidRating(r.Value) {
				return fmt.Errorf("designs[%d].ratings[%d]: invalid rating", i, j)
			}
		}
	}
	return nil
}
