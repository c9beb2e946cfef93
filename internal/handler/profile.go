package handler

import (
	"net/http"
	"strings"

	"socialhub/internal/blob"
	"socialhub/internal/model"
)

type profileForm struct {
	Login       string `form:"login" validate:"required"`
	Name        string `form:"name"`
	Description string `form:"description"`
}

type profileRequest struct {
	Login string `json:"login" validate:"required"`
}

type profileResponse struct {
	Login       string  `json:"login"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	AvatarURL   *string `json:"avatarUrl"`
}

// CreateProfile handles POST /create-profile
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	h.saveProfile(w, r, "handler.create_profile", "profile created")
}

// EditProfile handles POST /edit-profile
// アバター未指定の場合は既存のアバターを維持する
func (h *Handler) EditProfile(w http.ResponseWriter, r *http.Request) {
	h.saveProfile(w, r, "handler.edit_profile", "profile updated")
}

func (h *Handler) saveProfile(w http.ResponseWriter, r *http.Request, op, done string) {
	if err := h.parseMultipart(w, r, op); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	defer cleanupMultipart(r)

	form := profileForm{
		Login:       strings.TrimSpace(r.FormValue("login")),
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
	}
	if err := validateRequest(op, form); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	avatar, err := h.saveUpload(r, op, "avatar", blob.Avatars, false)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	err = h.Store.UpdateProfile(r.Context(), form.Login, model.ProfileUpdate{
		Name:        form.Name,
		Description: form.Description,
		AvatarFile:  avatar,
	})
	if err != nil {
		h.discardUpload(blob.Avatars, avatar)
		h.writeError(w, r, op, err)
		return
	}

	h.Log.Info("profile.save", "login", form.Login, "avatar", avatar != "")
	writeJSON(w, http.StatusCreated, map[string]string{"message": done})
}

// GetProfile handles POST /get-profile
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "handler.get_profile"

	var req profileRequest
	if err := decodeJSON(w, r, op, maxJSONBody, &req); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	req.Login = strings.TrimSpace(req.Login)
	if err := validateRequest(op, req); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	u, err := h.Store.UserByLogin(r.Context(), req.Login)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Login:       u.Login,
		Name:        u.Name,
		Description: u.Description,
		AvatarURL:   h.blobURL(blob.Avatars, u.AvatarFile),
	})
}

// blobURL returns nil for an empty handle so it encodes as JSON null.
func (h *Handler) blobURL(kind blob.Kind, handle string) *string {
	if handle == "" {
		return nil
	}
	u := h.Blobs.URL(kind, handle)
	return &u
}
