package furniture

import (
	"testing"
)

func FuzzConvertToItem(f *testing.F) {
	f.Add("sofa-1", "Sofa", "seating", 499.0, "https://img/sofa.png", 200.0)
	f.Add("", "", "", -1.0, "", 0.0)

	f.Fuzz(func(t *testing.T, id, title, productType string, price float64, image string, width float64) {
		resp := apiResponse{
			ID:          id,
			Title:       title,
			ProductType: optionalString(productType),
			Price:       &price,
			Image:       optionalString(image),
		}
		if int64(width)%2 == 0 {
			resp.Dimensions = &dimensionsPayload{Width: &width}
		}

		item := convertToItem("fallback-ref", resp)
		if item == nil {
			t.Fatalf("convertToItem returned nil")
		}
		if item.ID == "" {
			t.Fatalf("id should never be empty")
		}
		if item.Price < 0 {
			t.Fatalf("price should never be negative, got %v", item.Price)
		}
	})
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
