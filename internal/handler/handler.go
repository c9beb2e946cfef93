package handler

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"socialhub/internal/auth"
	"socialhub/internal/blob"
	"socialhub/internal/config"
	"socialhub/internal/metrics"
	"socialhub/internal/realtime"
	"socialhub/internal/store"
)

// Handler holds application dependencies
type Handler struct {
	Store   store.Store
	Auth    *auth.Service
	Blobs   *blob.DiskStore
	Router  *realtime.Router
	Gateway http.Handler
	Metrics *metrics.Metrics
	Config  config.Config
	Log     *slog.Logger
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// アカウント
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	// プロフィール
	r.HandleFunc("/create-profile", h.CreateProfile).Methods(http.MethodPost)
	r.HandleFunc("/edit-profile", h.EditProfile).Methods(http.MethodPost)
	r.HandleFunc("/get-profile", h.GetProfile).Methods(http.MethodPost)

	// 投稿
	r.HandleFunc("/create-post", h.CreatePost).Methods(http.MethodPost)
	r.HandleFunc("/get-posts", h.GetPosts).Methods(http.MethodGet)
	r.HandleFunc("/get-posts-profile", h.GetPostsProfile).Methods(http.MethodGet)

	// メッセージ
	r.HandleFunc("/send-message", h.SendMessage).Methods(http.MethodPost)
	r.HandleFunc("/get-messages", h.GetMessages).Methods(http.MethodGet)

	// 画像
	r.HandleFunc("/images/{kind:posts|avatars}/{file}", h.GetImage).Methods(http.MethodGet)

	// WebSocket
	r.Handle("/ws", h.Gateway).Methods(http.MethodGet)

	// 運用
	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.Readyz).Methods(http.MethodGet)
	r.Handle("/metrics", h.Metrics.Handler()).Methods(http.MethodGet)

	r.Use(func(next http.Handler) http.Handler {
		return WithRequestLogging(next, h.Log, h.Metrics)
	})
	return r
}
