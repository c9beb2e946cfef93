package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"socialhub/internal/blob"
)

// GetImage handles GET /images/{posts|avatars}/{file}
func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	const op = "handler.get_image"
	vars := mux.Vars(r)

	b, err := h.Blobs.Get(blob.Kind(vars["kind"]), vars["file"])
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	w.Header().Set("Content-Type", b.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, b.Path)
}
