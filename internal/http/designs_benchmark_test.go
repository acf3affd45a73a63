package httpserver

import (
	"fmt"
	"net/http"
	"testing"
)

func BenchmarkHandleRateDesign(b *testing.B) {
	srv := buildTestServer(b)
	d := srv.createDesign(b, "Benchmark Design", true, 0)
	target := "/designs/" + d.ID + "/rate"

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := srv.do(http.MethodPost, target, fmt.Sprintf("bench-%d", i), []byte(`{"rating":4}`))
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
