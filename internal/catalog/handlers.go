package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/florista/backend/internal/auth"
	"github.com/florista/backend/internal/middleware"
	apperrors "github.com/florista/backend/pkg/errors"
)

// Handler contains the catalog HTTP handlers
type Handler struct {
	useCase *UseCase
	logger  *zap.Logger
}

// NewHandler creates a new catalog Handler
func NewHandler(useCase *UseCase, logger *zap.Logger) *Handler {
	return &Handler{useCase: useCase, logger: logger}
}

// RegisterRoutes mounts the catalog endpoints. Reads are public; writes are
// operator-only.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, authMW gin.HandlerFunc) {
	adminMW := middleware.RequireRole(auth.RoleAdmin)

	group := api.Group("/items")
	group.GET("", h.ListItems)
	group.GET("/available", h.ListAvailable)
	group.GET("/:id", h.GetItem)
	group.POST("", authMW, adminMW, h.CreateItem)
	group.PUT("/:id", authMW, adminMW, h.UpdateItem)
	group.PUT("/:id/stock", authMW, adminMW, h.AdjustStock)
}

// ListItems returns the whole catalog
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.useCase.ListItems(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// ListAvailable returns items that can currently be ordered
func (h *Handler) ListAvailable(c *gin.Context) {
	items, err := h.useCase.ListAvailable(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetItem returns one catalog item
func (h *Handler) GetItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	item, err := h.useCase.GetItem(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ItemRequest is the payload for creating or updating a catalog item
type ItemRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	ImageURL    string          `json:"image_url"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock_quantity"`
	IsAvailable *bool           `json:"is_available"`
}

// CreateItem adds a new item to the catalog
func (h *Handler) CreateItem(c *gin.Context) {
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.useCase.CreateItem(c.Request.Context(), req.Name, req.Description, req.ImageURL, req.Price, req.Stock)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateItem overwrites the descriptive fields of an item
func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	item, err := h.useCase.UpdateItem(c.Request.Context(), id, UpdateItemParams{
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		IsAvailable: available,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// AdjustStockRequest is the payload for operator stock corrections
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required"`
}

// AdjustStock applies an operator stock correction
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := h.useCase.AdjustStock(c.Request.Context(), id, req.Delta)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		c.JSON(domainErr.HTTPStatus(), domainErr)
		return
	}
	h.logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid item id"})
		return 0, false
	}
	return id, true
}
