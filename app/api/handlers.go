package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harukit/morning-brief/app/archive"
	"github.com/harukit/morning-brief/app/sources"
)

type Handler struct {
	archive     *archive.Archive
	configCache *sources.ConfigCache
	version     string
}

func NewHandler(arch *archive.Archive, configCache *sources.ConfigCache, version string) *Handler {
	return &Handler{
		archive:     arch,
		configCache: configCache,
		version:     version,
	}
}

func (h *Handler) GetBrief(c *gin.Context) {
	brief, err := h.archive.LatestBrief()
	if err != nil {
		slog.Error("Database error", "operation", "latest_brief", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if brief == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No brief generated yet"})
		return
	}

	c.JSON(http.StatusOK, brief)
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   h.version,
		"sources":   h.configCache.GetSourceCount(),
	}

	if briefCount, err := h.archive.GetBriefCount(); err == nil {
		health["briefs"] = briefCount
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	runs, err := h.archive.RecentRuns(20)
	if err != nil {
		slog.Error("Database error", "operation", "recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  runs,
		"total": len(runs),
	})
}
