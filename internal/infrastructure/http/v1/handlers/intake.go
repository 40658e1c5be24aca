package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/intake"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// IntakeHandler accepts scanned document payloads. Names are resolved to
// catalog IDs before the ledger is touched.
type IntakeHandler struct {
	*BaseHandler
	service *intake.Service
}

// NewIntakeHandler creates an intake handler.
func NewIntakeHandler(base *BaseHandler, service *intake.Service) *IntakeHandler {
	return &IntakeHandler{BaseHandler: base, service: service}
}

// ScanPurchase handles POST /purchases/scan.
func (h *IntakeHandler) ScanPurchase(c *gin.Context) {
	var payload intake.PurchasePayload
	if !h.BindJSON(c, &payload) {
		return
	}

	doc, err := h.service.IngestPurchase(c.Request.Context(), payload, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

// ScanSale handles POST /sales/scan.
func (h *IntakeHandler) ScanSale(c *gin.Context) {
	var payload intake.SalePayload
	if !h.BindJSON(c, &payload) {
		return
	}

	doc, err := h.service.IngestSale(c.Request.Context(), payload, h.Actor(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, dto.FromSale(doc))
}
