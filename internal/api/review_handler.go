package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"RosterSync/internal/model"
	"RosterSync/internal/repository"
	"RosterSync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ReviewHandler 人工审核接口
type ReviewHandler struct {
	reviewService *service.ReviewService
	logger        *logrus.Logger
}

func NewReviewHandler(svc *service.ReviewService, logger *logrus.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: svc, logger: logger}
}

// ApproveRequest 审核通过请求体
type ApproveRequest struct {
	EntityID uint64 `json:"entity_id" binding:"required"`
	Note     string `json:"note"`
}

// NoteRequest 驳回/跳过请求体，可为空
type NoteRequest struct {
	Note string `json:"note"`
}

// ListPending 待审核列表
// GET /api/review?kind=player&provider=fbref&page=1&page_size=20
func (h *ReviewHandler) ListPending(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	result, err := h.reviewService.ListPending(c.Request.Context(), scope, page, pageSize)
	if err != nil {
		h.logger.WithError(err).Error("ListPending failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// CountPending 待审核数量 GET /api/review/count?kind=&provider=
func (h *ReviewHandler) CountPending(c *gin.Context) {
	scope, ok := parseScope(c)
	if !ok {
		return
	}
	n, err := h.reviewService.CountPending(c.Request.Context(), scope)
	if err != nil {
		h.logger.WithError(err).Error("CountPending failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": n})
}

// Approve 审核通过 POST /api/review/:id/approve {"entity_id": 1, "note": ""}
func (h *ReviewHandler) Approve(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}
	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	item, err := h.reviewService.Approve(c.Request.Context(), id, req.EntityID, req.Note)
	if err != nil {
		h.fail(c, "Approve", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Reject 驳回 POST /api/review/:id/reject
func (h *ReviewHandler) Reject(c *gin.Context) {
	h.close(c, "Reject", h.reviewService.Reject)
}

// Skip 跳过 POST /api/review/:id/skip
func (h *ReviewHandler) Skip(c *gin.Context) {
	h.close(c, "Skip", h.reviewService.Skip)
}

type closeFunc func(ctx context.Context, id uint64, note string) (*model.ReviewQueueItem, error)

func (h *ReviewHandler) close(c *gin.Context, op string, fn closeFunc) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}
	var req NoteRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return
		}
	}
	item, err := fn(c.Request.Context(), id, req.Note)
	if err != nil {
		h.fail(c, op, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// fail 业务错误映射为 HTTP 状态码
func (h *ReviewHandler) fail(c *gin.Context, op string, err error) {
	h.logger.WithError(err).Error(op + " failed")
	var conflict *service.ConflictError
	switch {
	case errors.Is(err, service.ErrQueueItemNotFound), errors.Is(err, service.ErrEntityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrKindMismatch), errors.Is(err, service.ErrStubTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &conflict),
		errors.Is(err, service.ErrAlreadyApproved),
		errors.Is(err, service.ErrEntityLocked),
		errors.Is(err, service.ErrSlotOccupied):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func parseItemID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func parseScope(c *gin.Context) (repository.ReviewScope, bool) {
	scope := repository.ReviewScope{Provider: c.Query("provider")}
	if raw := c.Query("kind"); raw != "" {
		kind, err := model.ParseEntityKind(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return scope, false
		}
		scope.Kind = kind
	}
	return scope, true
}
