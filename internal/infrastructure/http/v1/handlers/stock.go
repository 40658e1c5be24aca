package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/stock"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// StockHandler serves the read side of the lot store.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
}

// NewStockHandler creates a stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service) *StockHandler {
	return &StockHandler{BaseHandler: base, service: service}
}

// List handles GET /stock.
func (h *StockHandler) List(c *gin.Context) {
	filter := stock.DefaultListFilter()
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.IncludeEmpty = c.Query("includeEmpty") == "true"

	if raw := c.Query("productId"); raw != "" {
		if parsed, err := id.Parse(raw); err == nil {
			filter.ProductID = &parsed
		}
	}
	if raw := c.Query("manufacturerId"); raw != "" {
		if parsed, err := id.Parse(raw); err == nil {
			filter.ManufacturerID = &parsed
		}
	}
	var ok bool
	if filter.ExpiringBefore, ok = h.ParseDateQuery(c, "expiringBefore"); !ok {
		return
	}

	lots, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      lots,
		TotalCount: int64(len(lots)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Get handles GET /stock/:id.
func (h *StockHandler) Get(c *gin.Context) {
	lotID, ok := h.ParseID(c)
	if !ok {
		return
	}

	lot, err := h.service.GetLot(c.Request.Context(), lotID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, lot)
}

// LowStock handles GET /stock/low. Products below their category threshold.
func (h *StockHandler) LowStock(c *gin.Context) {
	items, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}
