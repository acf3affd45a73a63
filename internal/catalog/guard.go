package catalog

import "github.com/Clark-Hu/room-catalog/internal/domain"

// requireVisible is the access rule shared by fetch, rate and rating listing.
// Listing operations enforce the same rule through the store predicate.
func requireVisible(d domain.Design) error {
	if !d.IsPublic {
		return &Error{Kind: KindForbidden, Message: "design is not public"}
	}
	return nil
}
