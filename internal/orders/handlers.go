package orders

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/florista/backend/internal/auth"
	"github.com/florista/backend/internal/middleware"
	apperrors "github.com/florista/backend/pkg/errors"
)

// UseCaseInterface defines the operations the HTTP layer needs from the order
// engine.
type UseCaseInterface interface {
	PlaceOrder(ctx context.Context, customerID int64, req PlaceOrderRequest) (*Order, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListAll(ctx context.Context) ([]Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	ListByStatus(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, orderID int64, status Status) (*Order, error)
	UpdateDetails(ctx context.Context, orderID int64, req UpdateDetailsRequest) (*Order, error)
}

// Handler contains the order HTTP handlers
type Handler struct {
	useCase UseCaseInterface
	logger  *zap.Logger
}

// NewHandler creates a new order Handler
func NewHandler(useCase UseCaseInterface, logger *zap.Logger) *Handler {
	return &Handler{useCase: useCase, logger: logger}
}

// RegisterRoutes mounts the order endpoints. Authorization is enforced here;
// the engine itself trusts the identity it is handed.
func (h *Handler) RegisterRoutes(api *gin.RouterGroup, authMW gin.HandlerFunc) {
	adminMW := middleware.RequireRole(auth.RoleAdmin)

	group := api.Group("/orders", authMW)
	group.POST("", h.PlaceOrder)
	group.GET("/my", h.ListMyOrders)
	group.GET("/:id", h.GetOrder)
	group.GET("", adminMW, h.ListOrders)
	group.GET("/status/:status", adminMW, h.ListOrdersByStatus)
	group.PUT("/:id/status", adminMW, h.UpdateStatus)
	group.PUT("/:id", adminMW, h.UpdateDetails)
}

// PlaceOrder creates an order from the caller's requested lines
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customerID, _ := middleware.CallerIdentity(c)
	order, err := h.useCase.PlaceOrder(c.Request.Context(), customerID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

// GetOrder returns one order; customers may only read their own
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	order, err := h.useCase.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	customerID, role := middleware.CallerIdentity(c)
	if role != auth.RoleAdmin && order.CustomerID != customerID {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListOrders returns every order (operator view)
func (h *Handler) ListOrders(c *gin.Context) {
	orders, err := h.useCase.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListMyOrders returns the authenticated customer's orders
func (h *Handler) ListMyOrders(c *gin.Context) {
	customerID, _ := middleware.CallerIdentity(c)
	orders, err := h.useCase.ListByCustomer(c.Request.Context(), customerID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// ListOrdersByStatus returns the orders in one lifecycle state
func (h *Handler) ListOrdersByStatus(c *gin.Context) {
	status, err := ParseStatus(c.Param("status"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	orders, err := h.useCase.ListByStatus(c.Request.Context(), status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// UpdateStatusRequest is the payload of PUT /orders/:id/status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an order through the lifecycle state machine
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := ParseStatus(req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	order, err := h.useCase.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// UpdateDetails is the administrative overwrite of status/delivery date/notes
func (h *Handler) UpdateDetails(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req UpdateDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.useCase.UpdateDetails(c.Request.Context(), id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
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
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
		return 0, false
	}
	return id, true
}
