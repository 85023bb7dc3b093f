package server

import (
	"bytes"
	"cmp"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/classlive/internal/calendar"
	"github.com/zulandar/classlive/internal/db"
	"github.com/zulandar/classlive/internal/output"
	"github.com/zulandar/classlive/internal/resolve"
	"go.uber.org/zap"
)

type handlers struct {
	opts StartOpts
	log  *zap.Logger
}

// registerRoutes sets up all API routes on the Gin router.
func registerRoutes(router *gin.Engine, h *handlers) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/lives", h.lives)
	api.GET("/rooms", h.rooms)
	api.GET("/devices/:code", h.device)
	api.GET("/recordings/:id", h.recordings)
	api.GET("/snapshots", h.snapshots)
}

// lives runs a LivesNow pass. previous defaults to false, like the CLI.
func (h *handlers) lives(c *gin.Context) {
	f, ok := h.format(c)
	if !ok {
		return
	}
	previous := false
	if v := c.Query("previous"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "previous must be a boolean"})
			return
		}
		previous = b
	}
	sessions, err := h.opts.Sessions(c.Request.Context(), c.Query("accounts"))
	if err != nil {
		h.fail(c, err)
		return
	}
	entries, err := h.opts.Engine.LivesNow(c.Request.Context(), sessions, previous)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeEntries(c, f, entries)
}

func (h *handlers) rooms(c *gin.Context) {
	f, ok := h.format(c)
	if !ok {
		return
	}
	sessions, err := h.opts.Sessions(c.Request.Context(), c.Query("accounts"))
	if err != nil {
		h.fail(c, err)
		return
	}
	entries, err := h.opts.Engine.Rooms(c.Request.Context(), sessions)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeEntries(c, f, entries)
}

func (h *handlers) device(c *gin.Context) {
	f, ok := h.format(c)
	if !ok {
		return
	}
	sessions, err := h.opts.Sessions(c.Request.Context(), c.Query("accounts"))
	if err != nil {
		h.fail(c, err)
		return
	}
	vp, err := h.opts.Engine.Device(c.Request.Context(), sessions, c.Param("code"))
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := output.Value(&buf, f, vp); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, contentType(f), buf.Bytes())
}

func (h *handlers) recordings(c *gin.Context) {
	f, ok := h.format(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "live id must be an integer"})
		return
	}
	sessions, err := h.opts.Sessions(c.Request.Context(), c.Query("accounts"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if len(sessions) == 0 {
		h.fail(c, resolve.ErrNoSessions)
		return
	}
	entries, err := h.opts.Engine.Recordings(c.Request.Context(), sessions[0], id)
	if err != nil {
		h.fail(c, err)
		return
	}
	writeEntries(c, f, entries)
}

func (h *handlers) snapshots(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	snaps, err := db.ListSnapshots(h.opts.DB, limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	type item struct {
		BatchID  string `json:"batch_id"`
		Previous bool   `json:"previous"`
		Accounts int    `json:"accounts"`
		Resolved int    `json:"resolved"`
		Error    string `json:"error,omitempty"`
		Created  string `json:"created_at"`
	}
	out := make([]item, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, item{
			BatchID:  s.BatchID,
			Previous: s.Previous,
			Accounts: s.Accounts,
			Resolved: s.Resolved,
			Error:    s.Error,
			Created:  s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) format(c *gin.Context) (output.Format, bool) {
	f, err := output.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", false
	}
	return f, true
}

// fail maps err onto an HTTP status.
func (h *handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var statusErr *calendar.StatusError
	switch {
	case errors.Is(err, db.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, resolve.ErrNoSessions):
		status = http.StatusConflict
	case calendar.IsShape(err), errors.As(err, &statusErr):
		status = http.StatusBadGateway
	}
	if status >= 500 {
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func writeEntries[K cmp.Ordered, V any](c *gin.Context, f output.Format, entries []resolve.Entry[K, V]) {
	var buf bytes.Buffer
	if err := output.Write(&buf, f, entries); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, contentType(f), buf.Bytes())
}

func contentType(f output.Format) string {
	if f == output.YAML {
		return "application/yaml; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}
