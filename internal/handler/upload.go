package handler

import (
	"errors"
	"net/http"

	"socialhub/internal/apperr"
	"socialhub/internal/blob"
)

const (
	defaultUploadLimit = 10 << 20
	multipartMemory    = 8 << 20
)

func (h *Handler) uploadLimit() int64 {
	if h.Config.MaxUploadBytes > 0 {
		return h.Config.MaxUploadBytes
	}
	return defaultUploadLimit
}

// parseMultipart parses a size limited multipart body. Callers must call
// cleanupMultipart when done.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request, op string) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.ValidationError{Op: op, Msg: "upload too large"}
		}
		return apperr.ValidationError{Op: op, Msg: "invalid multipart form"}
	}
	return nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// saveUpload stores the file in form field as a blob of kind. A missing file
// returns "" unless required.
func (h *Handler) saveUpload(r *http.Request, op, field string, kind blob.Kind, required bool) (string, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		if required {
			return "", apperr.ValidationError{Op: op, Field: field}
		}
		return "", nil
	}
	if err != nil {
		return "", apperr.ValidationError{Op: op, Field: field, Msg: "invalid " + field + " upload"}
	}
	defer file.Close()

	return h.Blobs.Put(r.Context(), kind, header.Filename, file)
}

// discardUpload removes a blob whose owning row could not be written.
func (h *Handler) discardUpload(kind blob.Kind, handle string) {
	if handle == "" {
		return
	}
	if err := h.Blobs.Delete(kind, handle); err != nil {
		h.Log.Warn("blob.discard.fail", "kind", string(kind), "handle", handle, "error", err.Error())
	}
}
