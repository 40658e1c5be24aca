package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/discount"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// DiscountHandler serves the discount campaign registry.
type DiscountHandler struct {
	*BaseHandler
	service *discount.Service
	engine  *discount.Engine
}

// NewDiscountHandler creates a discount handler.
func NewDiscountHandler(base *BaseHandler, service *discount.Service, engine *discount.Engine) *DiscountHandler {
	return &DiscountHandler{BaseHandler: base, service: service, engine: engine}
}

// Create handles POST /discounts.
func (h *DiscountHandler) Create(c *gin.Context) {
	var req dto.CreateDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d := req.ToEntity()
	if err := h.service.Create(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, d)
}

// Get handles GET /discounts/:id.
func (h *DiscountHandler) Get(c *gin.Context) {
	discountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), discountID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Update handles PUT /discounts/:id.
func (h *DiscountHandler) Update(c *gin.Context) {
	discountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req dto.UpdateDiscountRequest
	if !h.BindJSON(c, &req) {
		return
	}

	d, err := h.service.GetByID(c.Request.Context(), discountID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(d)
	if err := h.service.Update(c.Request.Context(), d); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, d)
}

// Delete handles DELETE /discounts/:id.
func (h *DiscountHandler) Delete(c *gin.Context) {
	discountID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), discountID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /discounts. activeAt filters to campaigns covering a date.
func (h *DiscountHandler) List(c *gin.Context) {
	filter := discount.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	var ok bool
	if filter.ActiveAt, ok = h.ParseDateQuery(c, "activeAt"); !ok {
		return
	}

	campaigns, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      campaigns,
		TotalCount: int64(len(campaigns)),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

// ActiveForProduct handles GET /discounts/product/:id. Returns the
// campaigns pricing would apply to the product today or at a given date.
func (h *DiscountHandler) ActiveForProduct(c *gin.Context) {
	productID, ok := h.ParseID(c)
	if !ok {
		return
	}

	at := time.Now().UTC()
	parsed, ok := h.ParseDateQuery(c, "at")
	if !ok {
		return
	}
	if parsed != nil {
		at = *parsed
	}

	campaigns, err := h.engine.ActiveDiscounts(c.Request.Context(), productID, at)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": campaigns, "at": at})
}
