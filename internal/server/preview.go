package server

import (
	"bytes"
	"net/http"
	"sync"
	"time"

	"github.com/bbruceyuan/vmarker/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PreviewHandler serves registered blobs at /preview/{id} so a browser can play them.
//
// Each registration is a handle the caller must [PreviewHandler.Revoke] once the
// blob is superseded or no longer shown.
type PreviewHandler struct {
	mu    sync.RWMutex
	blobs map[string]preview
}

type preview struct {
	blob    models.Blob
	name    string
	created time.Time
}

// NewPreviewHandler creates an empty [PreviewHandler].
func NewPreviewHandler() *PreviewHandler {
	return &PreviewHandler{blobs: map[string]preview{}}
}

// Routes returns the HTTP routes this handler serves.
func (h *PreviewHandler) Routes() []string {
	return []string{"/preview/{id}"}
}

// Register makes blob available and returns its path, relative to the server root.
func (h *PreviewHandler) Register(name string, blob models.Blob) (id, path string) {
	id = uuid.NewString()

	h.mu.Lock()
	h.blobs[id] = preview{blob: blob, name: name, created: time.Now()}
	h.mu.Unlock()

	return id, "/preview/" + id
}

// Revoke releases the blob behind id. Unknown ids are ignored.
func (h *PreviewHandler) Revoke(id string) {
	h.mu.Lock()
	delete(h.blobs, id)
	h.mu.Unlock()
}

// Len reports how many previews are live.
func (h *PreviewHandler) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.blobs)
}

// ServeHTTP serves the blob with range support.
func (h *PreviewHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	h.mu.RLock()
	p, ok := h.blobs[id]
	h.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if p.blob.ContentType != "" {
		w.Header().Set("Content-Type", p.blob.ContentType)
	}
	http.ServeContent(w, r, p.name, p.created, bytes.NewReader(p.blob.Data))
}
