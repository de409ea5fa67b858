package file

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/abduss/storeit/internal/auth"
	"github.com/abduss/storeit/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ViewCache holds rendered listings per path and requester.
type ViewCache interface {
	Get(path, requester, key string) (any, bool)
	Add(path, requester, key string, value any)
	Invalidate(path string) int
}

// Handler exposes the file services over HTTP.
type Handler struct {
	registration *RegistrationService
	query        *QueryService
	mutation     *MutationService
	accounting   *AccountingService
	views        ViewCache
}

// NewHandler wires the services into an HTTP handler. views may be nil.
func NewHandler(registration *RegistrationService, query *QueryService, mutation *MutationService, accounting *AccountingService, views ViewCache) *Handler {
	return &Handler{
		registration: registration,
		query:        query,
		mutation:     mutation,
		accounting:   accounting,
		views:        views,
	}
}

// RegisterRoutes mounts file operations under the provided router group.
func RegisterRoutes(group *gin.RouterGroup, h *Handler) {
	group.POST("/files", h.uploadFile)
	group.GET("/files", h.listFiles)
	group.GET("/files/:fileID", h.getFile)
	group.GET("/files/:fileID/download", h.downloadFile)
	group.POST("/files/:fileID/actions", h.applyAction)
	group.DELETE("/files/:fileID", h.deleteFile)
	group.GET("/usage", h.usage)
}

type actionRequest struct {
	Action string   `json:"action" binding:"required"`
	Name   string   `json:"name"`
	Emails []string `json:"emails" binding:"omitempty,dive,email"`
	Path   string   `json:"path"`
}

func (h *Handler) uploadFile(c *gin.Context) {
	requester, ok := auth.RequireUser(c)
	if !ok {
		WriteError(c, "upload", newError("register", "", ErrNotAuthenticated, nil))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload failed: file field is required"})
		return
	}

	payload, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload failed: cannot read file"})
		return
	}
	defer payload.Close()

	rec, err := h.registration.Register(c.Request.Context(), requester, Upload{
		Reader:      payload,
		Name:        fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		WriteError(c, "upload", err)
		return
	}

	h.invalidate(c, c.Query("path"))
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) listFiles(c *gin.Context) {
	requester, ok := auth.RequireUser(c)
	if !ok {
		WriteError(c, "list", newError("list", "", ErrNotAuthenticated, nil))
		return
	}

	opts, err := ParseListOptions(c)
	if err != nil {
		WriteError(c, "list", err)
		return
	}

	path := viewPath(c.Query("path"))
	key := opts.cacheKey()
	if h.views != nil {
		if cached, hit := h.views.Get(path, requester.ID, key); hit {
			if files, ok := cached.([]Record); ok {
				c.JSON(http.StatusOK, gin.H{"files": files, "total": len(files)})
				return
			}
		}
	}

	files, err := h.query.List(c.Request.Context(), requester, opts)
	if err != nil {
		WriteError(c, "list", err)
		return
	}
	if h.views != nil {
		h.views.Add(path, requester.ID, key, files)
	}

	c.JSON(http.StatusOK, gin.H{"files": files, "total": len(files)})
}

func (h *Handler) getFile(c *gin.Context) {
	requester, _ := auth.RequireUser(c)

	id, ok := parseFileID(c)
	if !ok {
		return
	}

	rec, err := h.query.Get(c.Request.Context(), requester, id)
	if err != nil {
		WriteError(c, "get", err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) downloadFile(c *gin.Context) {
	requester, _ := auth.RequireUser(c)

	id, ok := parseFileID(c)
	if !ok {
		return
	}

	rec, reader, err := h.query.Open(c.Request.Context(), requester, id)
	if err != nil {
		WriteError(c, "download", err)
		return
	}
	defer reader.Close()

	c.Header("Content-Type", "application/octet-stream")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	c.Header("Content-Length", strconv.FormatInt(rec.Size, 10))

	if _, err := io.Copy(c.Writer, reader); err != nil {
		logger.For(c).Warn("download interrupted", zap.String("file_id", id.String()), zap.Error(err))
		c.Status(http.StatusInternalServerError)
		return
	}
}

func (h *Handler) applyAction(c *gin.Context) {
	requester, _ := auth.RequireUser(c)

	id, ok := parseFileID(c)
	if !ok {
		return
	}

	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action failed: " + err.Error()})
		return
	}

	kind, err := ParseActionKind(req.Action)
	if err != nil {
		WriteError(c, "action", err)
		return
	}

	action := Action{Kind: kind, Name: req.Name, Emails: req.Emails}
	if kind == ActionRename {
		rec, err := h.query.Get(c.Request.Context(), requester, id)
		if err != nil {
			WriteError(c, string(kind), err)
			return
		}
		action.Extension = rec.Extension
	}

	result, err := h.mutation.Apply(c.Request.Context(), requester, id, action)
	if err != nil {
		WriteError(c, string(kind), err)
		return
	}

	h.invalidate(c, req.Path)
	c.JSON(http.StatusOK, result)
}

func (h *Handler) deleteFile(c *gin.Context) {
	requester, _ := auth.RequireUser(c)

	id, ok := parseFileID(c)
	if !ok {
		return
	}

	result, err := h.mutation.Delete(c.Request.Context(), requester, id)
	if err != nil {
		WriteError(c, "delete", err)
		return
	}

	h.invalidate(c, c.Query("path"))
	c.JSON(http.StatusOK, result)
}

func (h *Handler) usage(c *gin.Context) {
	requester, _ := auth.RequireUser(c)

	usage, err := h.accounting.ComputeUsage(c.Request.Context(), requester)
	if err != nil {
		WriteError(c, "usage", err)
		return
	}
	c.JSON(http.StatusOK, usage)
}

func (h *Handler) invalidate(c *gin.Context, path string) {
	if h.views == nil {
		return
	}
	path = viewPath(path)
	removed := h.views.Invalidate(path)
	logger.For(c).Debug("view cache invalidated", zap.String("path", path), zap.Int("entries", removed))
}

// ParseListOptions reads listing options from the query string:
// types (comma separated or repeated), search, sort and limit.
func ParseListOptions(c *gin.Context) (ListOptions, error) {
	var opts ListOptions

	for _, raw := range c.QueryArray("types") {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			t, ok := ParseType(part)
			if !ok {
				return ListOptions{}, invalidArgument("list", "", "unknown file type %q", part)
			}
			opts.Types = append(opts.Types, t)
		}
	}

	opts.SearchText = c.Query("search")

	sort, err := ParseSort(c.Query("sort"))
	if err != nil {
		return ListOptions{}, newError("list", "", ErrInvalidArgument, err)
	}
	opts.Sort = sort

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return ListOptions{}, invalidArgument("list", "", "limit must be a positive integer")
		}
		opts.Limit = limit
	}
	return opts, nil
}

func (o ListOptions) cacheKey() string {
	types := make([]string, len(o.Types))
	for i, t := range o.Types {
		types[i] = string(t)
	}
	return fmt.Sprintf("types=%s&search=%s&sort=%s&limit=%d", strings.Join(types, ","), o.SearchText, o.Sort, o.Limit)
}

func viewPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	return path
}

func parseFileID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("fileID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return uuid.Nil, false
	}
	return id, true
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrFileNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as {"error": "<action> failed: <message>"}. Server-side
// failures are logged and their cause is not echoed to the client.
func WriteError(c *gin.Context, action string, err error) {
	status := StatusFor(err)
	message := err.Error()
	if status >= http.StatusInternalServerError {
		logger.For(c).Error(action+" failed", zap.Error(err))
		message = "upstream failure"
		if status == http.StatusInternalServerError {
			message = "internal error"
		}
	}
	c.JSON(status, gin.H{"error": action + " failed: " + message})
}
