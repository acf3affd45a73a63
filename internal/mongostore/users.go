package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Clark-Hu/room-catalog/internal/catalog"
	"github.com/Clark-Hu/room-catalog/internal/domain"
)

var _ catalog.UserDirectory = (*Store)(nil)

type userDocument struct {
	ID        string `bson:"_id"`
	Email     string `bson:"email"`
	FirstName string `bson:"firstName"`
	LastName  string `bson:"lastName"`
}

// ProfilesByID returns the projections of the users that exist among ids.
func (s *Store) ProfilesByID(ctx context.Context, ids []string) (map[string]domain.UserProfile, error) {
	profiles := make(map[string]domain.UserProfile, len(ids))
	if len(ids) == 0 {
		return profiles, nil
	}

	opts := options.Find().SetProjection(bson.M{"email": 1, "firstName": 1, "lastName": 1})
	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var doc userDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		profiles[doc.ID] = domain.UserProfile{
			ID:        doc.ID,
			Email:     doc.Email,
			FirstName: doc.FirstName,
			LastName:  doc.LastName,
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return profiles, nil
}

// UpsertUser inserts or replaces a user profile.
func (s *Store) UpsertUser(ctx context.Context, p domain.UserProfile) error {
	doc := userDocument{ID: p.ID, Email: p.Email, FirstName: p.FirstName, LastName: p.LastName}
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": p.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert user %s: %w", p.ID, err)
	}
	return nil
}
