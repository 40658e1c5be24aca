package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/core/id"
	"pharmaledger/internal/domain/sale"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// SaleHandler serves the sale side of the ledger.
type SaleHandler struct {
	*BaseHandler
	service *sale.Service
}

// NewSaleHandler creates a sale handler.
func NewSaleHandler(base *BaseHandler, service *sale.Service) *SaleHandler {
	return &SaleHandler{BaseHandler: base, service: service}
}

// Create handles POST /sales. The response carries the derived totals and
// change due.
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc := req.ToEntity(h.Actor(c))
	if err := h.service.Record(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSale(doc))
}

// Get handles GET /sales/:id.
func (h *SaleHandler) Get(c *gin.Context) {
	txID, ok := h.ParseID(c)
	if !ok {
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), txID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromSale(doc))
}

// List handles GET /sales.
func (h *SaleHandler) List(c *gin.Context) {
	filter := sale.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if raw := c.Query("customerId"); raw != "" {
		if parsed, err := id.Parse(raw); err == nil {
			filter.CustomerID = &parsed
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

// Delete handles DELETE /sales/:id, which reverses the transaction and
// returns the sold quantity to its lots.
func (h *SaleHandler) Delete(c *gin.Context) {
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
