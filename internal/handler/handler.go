package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"contentnode/internal/binstore"
	"contentnode/internal/channel"
	"contentnode/internal/devtools"
	"contentnode/internal/domain"
	"contentnode/internal/repository"
	"contentnode/internal/restmodel"
	"contentnode/internal/service"
)

var (
	errBadRequest = errors.New("bad request")
	// errNotWritable is returned for types that are only written by devtools imports
	errNotWritable = errors.New("objects of this type are managed through devtools packages")
	errDisabled    = errors.New("feature not configured")
)

// Services are the services the API is served from. Files and Devtools may be nil.
type Services struct {
	Objects  *service.ObjectService
	Channels *service.ChannelService
	Render   *service.RenderService
	Users    *service.UserService
	Files    *service.FileService
	Devtools *service.DevtoolsService
}

// Handler serves the REST API
type Handler struct {
	objects     *service.ObjectService
	channels    *service.ChannelService
	render      *service.RenderService
	users       *service.UserService
	files       *service.FileService
	devtools    *service.DevtoolsService
	transformer *restmodel.Transformer
	logger      *slog.Logger
}

// New creates a new API handler
func New(s Services, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		objects:     s.Objects,
		channels:    s.Channels,
		render:      s.Render,
		users:       s.Users,
		files:       s.Files,
		devtools:    s.Devtools,
		transformer: restmodel.NewTransformer(s.Objects.Loader()),
		logger:      logger,
	}
}

// Register adds the API routes to the mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Health)
	mux.HandleFunc("POST /api/auth/login", h.Login)

	// Devtools packages
	mux.HandleFunc("GET /api/devtools", h.ListPackages)
	mux.HandleFunc("GET /api/devtools/{name}", h.GetPackage)
	mux.HandleFunc("POST /api/devtools/{name}/import", h.ImportPackage)
	mux.HandleFunc("POST /api/devtools/{name}/export", h.ExportPackage)

	// Objects
	mux.HandleFunc("GET /api/{type}", h.List)
	mux.HandleFunc("POST /api/{type}", h.Create)
	mux.HandleFunc("GET /api/{type}/{id}", h.Get)
	mux.HandleFunc("PUT /api/{type}/{id}", h.Update)
	mux.HandleFunc("DELETE /api/{type}/{id}", h.Delete)

	// Multichannelling
	mux.HandleFunc("POST /api/{type}/{id}/localize", h.Localize)
	mux.HandleFunc("POST /api/{type}/{id}/unlocalize", h.Unlocalize)
	mux.HandleFunc("GET /api/{type}/{id}/disinherit", h.GetDisinherit)
	mux.HandleFunc("PUT /api/{type}/{id}/disinherit", h.SetDisinherit)
	mux.HandleFunc("GET /api/{type}/{id}/channels", h.Variants)

	// Rendering and binaries
	mux.HandleFunc("POST /api/page/{id}/render", h.RenderPage)
	mux.HandleFunc("POST /api/page/{id}/online", h.PublishPage)
	mux.HandleFunc("POST /api/page/{id}/offline", h.TakePageOffline)
	mux.HandleFunc("POST /api/{type}/{id}/binary", h.Upload)
	mux.HandleFunc("GET /api/{type}/{id}/binary", h.Download)
}

// Health reports that the server is up
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

// ============================================================================
// Responses
// ============================================================================

// ErrorResponse is the body of error responses
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, repository.ErrNotFound),
		errors.Is(err, channel.ErrNotVisible),
		errors.Is(err, devtools.ErrNotFound),
		errors.Is(err, binstore.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, channel.ErrAlreadyLocalized):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalid),
		errors.Is(err, domain.ErrReadOnly),
		errors.Is(err, channel.ErrNotChannel),
		errors.Is(err, channel.ErrNotLocalized),
		errors.Is(err, channel.ErrMaster),
		errors.Is(err, channel.ErrExcluded),
		errors.Is(err, devtools.ErrInvalidName),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errNotWritable):
		return http.StatusMethodNotAllowed
	case errors.Is(err, errDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (h *Handler) writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("Failed to encode JSON", "error", err)
	}
}

// writeError writes the error with the status matching its cause
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	h.writeJSON(w, ErrorResponse{Error: http.StatusText(status), Details: err.Error()}, status)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ============================================================================
// Request helpers
// ============================================================================

func pathType(r *http.Request) (domain.ObjectType, error) {
	t, err := domain.ParseObjectType(r.PathValue("type"))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", repository.ErrNotFound, err)
	}
	return t, nil
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, badRequest("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

// pathObject returns type and ID of /api/{type}/{id} routes
func pathObject(r *http.Request) (domain.ObjectType, int, error) {
	t, err := pathType(r)
	if err != nil {
		return 0, 0, err
	}
	id, err := pathID(r)
	if err != nil {
		return 0, 0, err
	}
	return t, id, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, badRequest("invalid %s %q", name, v)
	}
	return n, nil
}

// channelContext sets the channel of the channel query parameter on the context
func channelContext(r *http.Request) (context.Context, int, error) {
	id, err := queryInt(r, "channel")
	if err != nil {
		return nil, 0, err
	}
	return channel.WithChannel(r.Context(), id), id, nil
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	return nil
}

// decodeOptional is decode for bodies that may be empty
func decodeOptional(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return badRequest("invalid request body: %v", err)
}

func fill(r *http.Request) []restmodel.Fill {
	return restmodel.ParseFill(r.URL.Query()["fill"])
}
