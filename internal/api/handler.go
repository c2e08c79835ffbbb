package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/notes-bin/imagehoster/internal/auth"
	"github.com/notes-bin/imagehoster/internal/cache"
	"github.com/notes-bin/imagehoster/internal/comment"
	"github.com/notes-bin/imagehoster/internal/config"
	"github.com/notes-bin/imagehoster/internal/image"
	"github.com/notes-bin/imagehoster/internal/model"
	"github.com/notes-bin/imagehoster/internal/tags"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/chi/v5"
)

// Store is everything the handlers need from persistence. Both the redis
// client and the sqlite store implement it.
type Store interface {
	image.Store
	image.CommentLister
	tags.Store
	comment.Store
	auth.UserStore
	cache.ViewStore
}

type Handler struct {
	config   *config.Config
	auth     *auth.Auth
	images   *image.Service
	comments *comment.Service
	popular  *cache.Popular
}

func NewHandler(config *config.Config, auth *auth.Auth, images *image.Service, comments *comment.Service, popular *cache.Popular) *Handler {
	return &Handler{config: config, auth: auth, images: images, comments: comments, popular: popular}
}

func SetupRouter(config *config.Config, store Store, popular *cache.Popular) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RateLimitMiddleware(config.RateLimit.Requests, config.RateLimit.Duration))

	h := NewHandler(
		config,
		auth.NewAuth(config.JWTSecret, store),
		image.NewService(store, store, store),
		comment.NewService(store),
		popular,
	)

	// 公共路由
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Get("/images", h.ListImages)
	r.Get("/images/popular", h.PopularImages)
	r.Get("/images/{id}", h.GetImage)

	// 需要认证的路由
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Post("/images", h.UploadImage)
		r.Get("/images/{id}/edit", h.EditImage)
		r.Put("/images/{id}", h.UpdateImage)
		r.Delete("/images/{id}", h.DeleteImage)
		r.Post("/images/{id}/comments", h.AddComment)
		r.Post("/change-password", h.ChangePassword)
	})

	return r
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrMissingCredentials) {
		respondError(w, http.StatusBadRequest, "Username and password are required")
		return
	}
	if errors.Is(err, auth.ErrUsernameTaken) {
		respondError(w, http.StatusConflict, "Username already exists")
		return
	}
	if err != nil {
		slog.Error("Failed to register", "username", req.Username, "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to register")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User registered", "user_id": user.ID})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	expiresIn := time.Duration(req.ExpiresIn) * time.Second
	if expiresIn == 0 {
		expiresIn = 24 * time.Hour
	}
	token, err := h.auth.Login(r.Context(), req.Username, req.Password, expiresIn)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewPassword string `json:"new_password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NewPassword == "" {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID(r), req.NewPassword); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		slog.Error("Failed to change password", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to update password")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password changed"})
}

func (h *Handler) ListImages(w http.ResponseWriter, r *http.Request) {
	images, err := h.images.List(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, images)
}

func (h *Handler) PopularImages(w http.ResponseWriter, r *http.Request) {
	images := []*model.Image{}
	for _, id := range h.popular.IDs() {
		view, err := h.images.View(r.Context(), id)
		if errors.Is(err, image.ErrNotFound) {
			continue // 快照刷新前已被删除
		}
		if err != nil {
			respondServiceError(w, err)
			return
		}
		images = append(images, view.Image)
	}
	respondJSON(w, http.StatusOK, images)
}

func (h *Handler) GetImage(w http.ResponseWriter, r *http.Request) {
	imageID := chi.URLParam(r, "id")
	view, err := h.images.View(r.Context(), imageID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.popular.RecordView(r.Context(), imageID)
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err != nil {
		respondUploadError(w, err)
		return
	}

	img, err := h.images.Create(r.Context(), userID(r), image.CreateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Upload:      upload,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, img)
}

func (h *Handler) EditImage(w http.ResponseWriter, r *http.Request) {
	form, err := h.images.EditForm(r.Context(), userID(r), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, form)
}

func (h *Handler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	upload, err := h.readUpload(w, r)
	if err != nil {
		respondUploadError(w, err)
		return
	}

	img, err := h.images.Update(r.Context(), userID(r), chi.URLParam(r, "id"), image.UpdateInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Upload:      upload,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, img)
}

func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if err := h.images.Delete(r.Context(), userID(r), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Image deleted"})
}

func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	c, err := h.comments.Add(r.Context(), userID(r), chi.URLParam(r, "id"), req.Comment)
	switch {
	case errors.Is(err, comment.ErrEmptyText):
		respondError(w, http.StatusBadRequest, "Comment cannot be empty")
	case errors.Is(err, comment.ErrImageNotFound):
		respondError(w, http.StatusNotFound, "Image not found")
	case err != nil:
		slog.Error("Failed to add comment", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to add comment")
	default:
		respondJSON(w, http.StatusCreated, c)
	}
}

// readUpload parses the multipart form and returns the "file" part, or nil
// when the request carries no file. The whole body is capped at
// MaxUploadSize.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*image.Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.MaxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &image.Upload{ContentType: header.Header.Get("Content-Type"), Data: data}, nil
}

func respondUploadError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File exceeds the %d byte upload limit", tooLarge.Limit))
		return
	}
	respondError(w, http.StatusBadRequest, "Invalid file")
}

// respondServiceError maps workflow rejections to status codes. Rejections
// that carry a view include it so the client can fall back to showing the
// image.
func respondServiceError(w http.ResponseWriter, err error) {
	var rej *image.Rejection
	if !errors.As(err, &rej) {
		slog.Error("Request failed", "error", err)
		respondJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(rej, image.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(rej, image.ErrNotOwner):
		status = http.StatusForbidden
	}
	slog.Warn("Request rejected", "status", status, "message", rej.Message)

	body := map[string]any{"error": rej.Message}
	if rej.View != nil {
		body["image"] = rej.View.Image
		body["tags"] = rej.View.Tags
		body["comments"] = rej.View.Comments
	}
	respondJSON(w, status, body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	slog.Error("Request failed", "status", status, "message", message)
	respondJSON(w, status, map[string]string{"error": message})
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
