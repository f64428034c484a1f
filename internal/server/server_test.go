package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/simonhull/metaspector/internal/config"
	"github.com/simonhull/metaspector/internal/fixture"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) http.Handler {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	return New(cfg, nil).Handler()
}

func do(h http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Origin", "https://client.test")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func flacUpload() []byte {
	return fixture.FLAC(nil,
		fixture.StreamInfo(48000, 2, 24, 480000),
		fixture.VorbisComment("v", "TITLE=Served", "ARTIST=Someone"),
		fixture.Picture(3, "image/jpeg", "", 8, 8, fixture.JPEG(8, 8)),
	)
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(t, nil), http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" || body["version"] == "" {
		t.Errorf("body = %v", body)
	}
}

func TestInspect(t *testing.T) {
	rec := do(newTestServer(t, nil), http.MethodPost, "/v1/inspect", flacUpload())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing CORS header")
	}

	var body struct {
		Metadata map[string]any   `json:"metadata"`
		Audio    []map[string]any `json:"audio"`
		Video    []map[string]any `json:"video"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Metadata["title"] != "Served" {
		t.Errorf("metadata = %v", body.Metadata)
	}
	if len(body.Audio) != 1 || body.Audio[0]["sample_rate"] != float64(48000) {
		t.Errorf("audio = %v", body.Audio)
	}
	if body.Video == nil {
		t.Error("video section missing, want []")
	}
	if strings.Contains(rec.Body.String(), `"Data"`) {
		t.Error("cover bytes leaked into JSON")
	}
}

func TestInspect_Section(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/v1/inspect?section=audio", flacUpload())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "Served") {
		t.Error("metadata returned for an audio request")
	}

	rec = do(h, http.MethodPost, "/v1/inspect?section=chapters", flacUpload())
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid section status = %d, want 400", rec.Code)
	}
}

func TestInspect_Errors(t *testing.T) {
	h := newTestServer(t, func(c *config.Config) { c.Server.MaxBodyBytes = 1024 })

	tests := []struct {
		name string
		body []byte
		want int
		kind string
	}{
		{"unsupported", []byte("plain text, not media"), http.StatusUnsupportedMediaType, "unsupported format"},
		{"no moov", fixture.Box("ftyp", []byte("isom\x00\x00\x00\x00")), http.StatusUnprocessableEntity, "not a media file"},
		{"too large", append([]byte("fLaC"), make([]byte, 2048)...), http.StatusRequestEntityTooLarge, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/v1/inspect", tt.body)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body["error"] == "" || body["kind"] != tt.kind {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestCover(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(h, http.MethodPost, "/v1/cover", flacUpload())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), fixture.JPEG(8, 8)) {
		t.Error("cover bytes differ")
	}

	bare := fixture.FLAC(nil, fixture.StreamInfo(44100, 1, 16, 0))
	if rec := do(h, http.MethodPost, "/v1/cover", bare); rec.Code != http.StatusNotFound {
		t.Errorf("status without cover = %d, want 404", rec.Code)
	}
}
