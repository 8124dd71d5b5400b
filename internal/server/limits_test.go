package server_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/example/go-postproc/internal/server"
)

// ---------------------------------------------------------------------------
// request validation and limits
// ---------------------------------------------------------------------------

func TestLabel_OversizedBodyRejectedAs413(t *testing.T) {
	h := newTestHandler(t, server.WithMaxBodyBytes(32))

	body := `{"line":"` + strings.Repeat("x", 64) + `"}`
	rec := post(h, "/v1/label", body)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestDecode_OversizedBodyRejectedAs413(t *testing.T) {
	h := newTestHandler(t, server.WithMaxBodyBytes(16))

	rec := post(h, "/v1/decode", `{"chars":["a","b","c"],"labels":["None","None","None"]}`)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("want 413, got %d", rec.Code)
	}
}

func TestLabel_BodyAtLimitIsAccepted(t *testing.T) {
	body := `{"line":"hello"}`
	h := newTestHandler(t, server.WithMaxBodyBytes(int64(len(body))))

	rec := post(h, "/v1/label", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("want 200 for exactly-limit body, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestLabel_WorkerPoolServesSequentialRequests(t *testing.T) {
	h := newTestHandler(t, server.WithWorkers(1))

	for i := range 3 {
		rec := post(h, "/v1/label", `{"raw":"cat","processed":["cut"]}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: want 200, got %d", i, rec.Code)
		}
	}
}
