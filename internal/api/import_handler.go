package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"RosterSync/internal/adapter"
	"RosterSync/internal/config"
	"RosterSync/internal/interfaces"
	"RosterSync/internal/model"
	"RosterSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ImportHandler 数据导入接口
type ImportHandler struct {
	importService *service.ImportService
	logger        *logrus.Logger
	cfg           config.ImportConfig
}

func NewImportHandler(svc *service.ImportService, logger *logrus.Logger, cfg config.ImportConfig) *ImportHandler {
	return &ImportHandler{importService: svc, logger: logger, cfg: cfg}
}

// ListProviders 已支持的数据源 GET /api/providers
func (h *ImportHandler) ListProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": adapter.ListProfiles()})
}

// RunImport 导入一批数据并匹配
// POST /api/imports/:provider?kind=club|player&dry_run=false&stubs=true
// 请求体为 CSV（默认）或 JSON 数组（Content-Type: application/json）
func (h *ImportHandler) RunImport(c *gin.Context) {
	kind, rows, ok := h.readRows(c)
	if !ok {
		return
	}
	dryRun, err := parseBoolQuery(c, "dry_run", false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stubs, err := parseBoolQuery(c, "stubs", h.cfg.CreateStubs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.importService.Run(c.Request.Context(), service.ImportRequest{
		Kind:        kind,
		Provider:    h.provider(c),
		Rows:        rows,
		DryRun:      dryRun,
		CreateStubs: stubs,
	})
	if err != nil {
		h.logger.WithError(err).WithField("provider", h.provider(c)).Error("RunImport failed")
		if errors.Is(err, service.ErrLookupNotSeeded) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// Seed 首次建档 POST /api/seed/:provider?kind=club|player
func (h *ImportHandler) Seed(c *gin.Context) {
	kind, rows, ok := h.readRows(c)
	if !ok {
		return
	}
	summary, err := h.importService.Seed(c.Request.Context(), kind, h.provider(c), rows)
	if err != nil {
		h.logger.WithError(err).WithField("provider", h.provider(c)).Error("Seed failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ImportHandler) provider(c *gin.Context) string {
	if p := c.Param("provider"); p != "" {
		return p
	}
	return h.cfg.DefaultProvider
}

// readRows 解析 kind 与请求体，出错时已写好响应
func (h *ImportHandler) readRows(c *gin.Context) (model.EntityKind, []interfaces.Row, bool) {
	kind, err := model.ParseEntityKind(c.Query("kind"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}
	profile, err := adapter.GetProfile(h.provider(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", nil, false
	}

	body := c.Request.Body
	if h.cfg.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(c.Writer, body, h.cfg.MaxBodyBytes)
	}
	var rows []interfaces.Row
	if strings.Contains(c.ContentType(), "json") {
		rows, err = adapter.ReadJSON(body, profile)
	} else {
		rows, err = adapter.ReadCSV(body, profile)
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "文件过大"})
			return "", nil, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return "", nil, false
	}
	if h.cfg.BatchLimit > 0 && len(rows) > h.cfg.BatchLimit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("单次最多导入%d行，实际%d行", h.cfg.BatchLimit, len(rows))})
		return "", nil, false
	}
	return kind, rows, true
}

func parseBoolQuery(c *gin.Context, key string, def bool) (bool, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("参数%s必须是布尔值: %q", key, raw)
	}
	return v, nil
}
