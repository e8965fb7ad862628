package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bbruceyuan/vmarker/internal/models"
)

func TestPreviewHandler(t *testing.T) {
	previews := NewPreviewHandler()
	router := NewBasicRouter()
	router.Handler(previews)

	id, path := previews.Register("bar.mp4", models.Blob{Data: []byte("0123456789"), ContentType: "video/mp4"})
	if previews.Len() != 1 {
		t.Fatalf("expected 1 preview, got %d", previews.Len())
	}

	t.Run("serves blob", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "0123456789" {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}
		if rec.Header().Get("Content-Type") != "video/mp4" {
			t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
		}
	})

	t.Run("supports ranges", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Range", "bytes=2-4")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusPartialContent || rec.Body.String() != "234" {
			t.Errorf("unexpected range response %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("revoked blob is gone", func(t *testing.T) {
		previews.Revoke(id)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
		if previews.Len() != 0 {
			t.Error("expected no live previews")
		}
	})
}
