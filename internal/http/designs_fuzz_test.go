package httpserver

import (
	"net/url"
	"testing"
)

func FuzzParseListQuery(f *testing.F) {
	seeds := []string{
		"shape=rectangular&page=2&limit=5",
		"page=abc",
		"limit=99999999999999999999",
		"",
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, raw string) {
		values, err := url.ParseQuery(raw)
		if err != nil {
			return
		}
		q := parseListQuery(values)
		if q.Page < 0 || q.Limit < 0 {
			t.Fatalf("negative page or limit from %q: %+v", raw, q)
		}
	})
}
