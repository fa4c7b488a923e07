package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"contentnode/internal/restmodel"
	"contentnode/internal/service"
)

// RenderRequest optionally replaces the template source
type RenderRequest struct {
	Source string `json:"source"`
}

// RenderPage renders the page in the requested channel
func (h *Handler) RenderPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	channelID, err := queryInt(r, "channel")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var req RenderRequest
	if err := decodeOptional(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	res, err := h.render.RenderPage(r.Context(), id, channelID, req.Source)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, res, http.StatusOK)
}

// PublishPage marks the page online
func (h *Handler) PublishPage(w http.ResponseWriter, r *http.Request) {
	h.setOnline(w, r, true)
}

// TakePageOffline marks the page offline
func (h *Handler) TakePageOffline(w http.ResponseWriter, r *http.Request) {
	h.setOnline(w, r, false)
}

func (h *Handler) setOnline(w http.ResponseWriter, r *http.Request, online bool) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, err := h.objects.SetOnline(r.Context(), id, online)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeObject(w, r.Context(), page, http.StatusOK)
}

// Upload stores the request body as content of the file or image
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		h.writeError(w, r, fmt.Errorf("binary store: %w", errDisabled))
		return
	}
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	obj, err := h.files.Upload(r.Context(), t, id, r.Body, r.ContentLength, r.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeObject(w, r.Context(), obj, http.StatusOK)
}

// Download streams the content of the file or image as seen from the requested channel
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		h.writeError(w, r, fmt.Errorf("binary store: %w", errDisabled))
		return
	}
	t, id, err := pathObject(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	ctx, _, err := channelContext(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rc, file, err := h.files.Download(ctx, t, id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", file.FileType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.Name))
	if file.FileSize > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(file.FileSize, 10))
	}
	if file.MD5 != "" {
		w.Header().Set("ETag", strconv.Quote(file.MD5))
	}
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Failed to stream content", "file", file.Describe(), "error", err)
	}
}

// LoginRequest holds the credentials of a login
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	User restmodel.User `json:"user"`
}

// Login checks the credentials and returns the user
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	user, err := h.users.Authenticate(r.Context(), req.Login, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, LoginResponse{User: restmodel.UserToREST(user)}, http.StatusOK)
}

// ============================================================================
// Devtools
// ============================================================================

// ListPackages returns the names of the packages
func (h *Handler) ListPackages(w http.ResponseWriter, r *http.Request) {
	if h.devtools == nil {
		h.writeError(w, r, fmt.Errorf("devtools: %w", errDisabled))
		return
	}
	names, err := h.devtools.Packages().List()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, map[string][]string{"packages": names}, http.StatusOK)
}

// GetPackage returns the contents of a package
func (h *Handler) GetPackage(w http.ResponseWriter, r *http.Request) {
	if h.devtools == nil {
		h.writeError(w, r, fmt.Errorf("devtools: %w", errDisabled))
		return
	}
	c, err := h.devtools.Packages().Load(r.PathValue("name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, c, http.StatusOK)
}

// ImportPackage imports a package into the content repository
func (h *Handler) ImportPackage(w http.ResponseWriter, r *http.Request) {
	if h.devtools == nil {
		h.writeError(w, r, fmt.Errorf("devtools: %w", errDisabled))
		return
	}
	c, err := h.devtools.ImportPackage(r.Context(), r.PathValue("name"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, c, http.StatusOK)
}

// ExportPackage writes the selected objects into a package. An empty body
// exports everything.
func (h *Handler) ExportPackage(w http.ResponseWriter, r *http.Request) {
	if h.devtools == nil {
		h.writeError(w, r, fmt.Errorf("devtools: %w", errDisabled))
		return
	}
	var sel service.Selection
	if err := decodeOptional(r, &sel); err != nil {
		h.writeError(w, r, err)
		return
	}
	c, err := h.devtools.Export(r.Context(), r.PathValue("name"), sel)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, c, http.StatusOK)
}
