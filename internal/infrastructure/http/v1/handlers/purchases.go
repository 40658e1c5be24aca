package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/purchase"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler serves the purchase side of the ledger.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a purchase handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, service: service}
}

// Create handles POST /purchases.
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity(h.Actor(c))
	if err := h.service.Record(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// Get handles GET /purchases/:id.
func (h *PurchaseHandler) Get(c *gin.Context) {
	txID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// List handles GET /purchases.
func (h *PurchaseHandler) List(c *gin.Context) {
	filter := purchase.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("manufacturerId"); raw != "" {
		if parsed, err := id.Parse(raw); err == nil {
			filter.ManufacturerID = &parsed
		}
	}
	var ok bool
	if filter.FromDate, ok = h.ParseDateQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseDateQuery(c, "to"); !ok {
		return
	}

	docs, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      docs,
		TotalCount: int64(len(docs)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// Delete handles DELETE /purchases/:id, which reverses the transaction.
func (h *PurchaseHandler) Delete(c *gin.Context) {
	txID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Reverse(c.Request.Context(), txID, h.Actor(c)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
