package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/vebgen/olts-sub002/proj"
	"github.com/vebgen/olts-sub002/tilecoord"
	"github.com/vebgen/olts-sub002/tilegrid"
	"github.com/vebgen/olts-sub002/xyz"
)

func newTestServer(t *testing.T) (*server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pattern := filepath.Join(t.TempDir(), "{z}", "{x}", "{y}.png")
	writer, err := xyz.NewWriter(pattern)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := writer.WriteTile(tilecoord.New(1, 0, 1), []byte("payload")); err != nil {
		t.Fatalf("WriteTile failed: %v", err)
	}
	reader, err := xyz.NewReader(pattern)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}

	grid := tilegrid.ForProjection(proj.WebMercator, 2, 256)
	srv := newServer(reader, grid, "image/png", 10)
	router := gin.New()
	srv.registerRoutes(router)
	return srv, router
}

func get(router *gin.Engine, url string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestServeTile(t *testing.T) {
	srv, router := newTestServer(t)

	w := get(router, "/tiles/1/0/1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %v, want 200", w.Code)
	}
	if got := w.Body.String(); got != "payload" {
		t.Errorf("body = %q", got)
	}
	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("content type = %q", got)
	}

	// Second request is served from the cache.
	if w := get(router, "/tiles/1/0/1"); w.Code != http.StatusOK {
		t.Errorf("cached status = %v, want 200", w.Code)
	}
	if got := srv.cache.Count(); got != 1 {
		t.Errorf("cache count = %v, want 1", got)
	}
}

func TestServeMissingTile(t *testing.T) {
	_, router := newTestServer(t)

	if w := get(router, "/tiles/1/1/1"); w.Code != http.StatusNoContent {
		t.Errorf("missing tile status = %v, want 204", w.Code)
	}
}

func TestServeOutOfRange(t *testing.T) {
	_, router := newTestServer(t)

	if w := get(router, "/tiles/5/0/0"); w.Code != http.StatusNotFound {
		t.Errorf("beyond-maxzoom status = %v, want 404", w.Code)
	}
	if w := get(router, "/tiles/1/abc/0"); w.Code != http.StatusBadRequest {
		t.Errorf("bad coordinate status = %v, want 400", w.Code)
	}
}

func TestServeWrappedColumn(t *testing.T) {
	_, router := newTestServer(t)

	// Column 2 at z1 is one world east of column 0.
	w := get(router, "/tiles/1/2/1")
	if w.Code != http.StatusOK {
		t.Fatalf("wrapped status = %v, want 200", w.Code)
	}
	if got := w.Body.String(); got != "payload" {
		t.Errorf("wrapped body = %q", got)
	}
}

func TestReloadDropsCache(t *testing.T) {
	srv, router := newTestServer(t)

	get(router, "/tiles/1/0/1")
	if got := srv.cache.Count(); got != 1 {
		t.Fatalf("cache count = %v, want 1", got)
	}

	srv.reload()
	if got := srv.cache.Count(); got != 0 {
		t.Fatalf("cache count after reload = %v, want 0", got)
	}

	if w := get(router, "/tiles/1/0/1"); w.Code != http.StatusOK {
		t.Errorf("status after reload = %v, want 200", w.Code)
	}
}
