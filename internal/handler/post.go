package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"socialhub/internal/apperr"
	"socialhub/internal/blob"
	"socialhub/internal/model"
)

type postForm struct {
	Login       string `form:"login" validate:"required"`
	Description string `form:"description" validate:"required"`
}

type postResponse struct {
	IDPost      int64     `json:"id_post"`
	Login       string    `json:"login"`
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
	ImageURL    *string   `json:"image_url"`
}

type postsResponse struct {
	Posts []postResponse `json:"posts"`
}

// CreatePost handles POST /create-post
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	const op = "handler.create_post"

	if err := h.parseMultipart(w, r, op); err != nil {
		h.writeError(w, r, op, err)
		return
	}
	defer cleanupMultipart(r)

	form := postForm{
		Login:       strings.TrimSpace(r.FormValue("login")),
		Description: r.FormValue("description"),
	}
	if err := validateRequest(op, form); err != nil {
		h.writeError(w, r, op, err)
		return
	}

	image, err := h.saveUpload(r, op, "image", blob.Posts, true)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}

	p, err := h.Store.CreatePost(r.Context(), form.Login, form.Description, image)
	if err != nil {
		h.discardUpload(blob.Posts, image)
		h.writeError(w, r, op, err)
		return
	}

	h.Log.Info("post.create", "login", p.Login, "id_post", p.ID)
	writeJSON(w, http.StatusCreated, map[string]any{"message": "post created", "id_post": p.ID})
}

// GetPosts handles GET /get-posts
// 投稿が1件もない場合は404を返す（既存クライアントとの互換）
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	const op = "handler.get_posts"

	posts, err := h.Store.ListPosts(r.Context())
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	if len(posts) == 0 {
		h.writeError(w, r, op, apperr.NotFoundError{Op: op, Resource: "posts"})
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{Posts: h.toPostResponses(posts)})
}

// GetPostsProfile handles GET /get-posts-profile?login=
func (h *Handler) GetPostsProfile(w http.ResponseWriter, r *http.Request) {
	const op = "handler.get_posts_profile"

	login := strings.TrimSpace(r.URL.Query().Get("login"))
	if login == "" {
		h.writeError(w, r, op, apperr.ValidationError{Op: op, Field: "login"})
		return
	}

	posts, err := h.Store.ListPostsByLogin(r.Context(), login)
	if err != nil {
		h.writeError(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, postsResponse{Posts: h.toPostResponses(posts)})
}

func (h *Handler) toPostResponses(posts []model.Post) []postResponse {
	return lo.Map(posts, func(p model.Post, _ int) postResponse {
		return postResponse{
			IDPost:      p.ID,
			Login:       p.Login,
			Date:        p.Date,
			Description: p.Description,
			ImageURL:    h.blobURL(blob.Posts, p.ImageFile),
		}
	})
}
