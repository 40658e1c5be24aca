package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/audit"
)

// AuditHandler serves the activity log, newest first.
type AuditHandler struct {
	*BaseHandler
	recorder *audit.Recorder
}

// NewAuditHandler creates an audit handler.
func NewAuditHandler(base *BaseHandler, recorder *audit.Recorder) *AuditHandler {
	return &AuditHandler{BaseHandler: base, recorder: recorder}
}

// List handles GET /audit.
func (h *AuditHandler) List(c *gin.Context) {
	filter := audit.Filter{
		Actor:  c.Query("actor"),
		Action: c.Query("action"),
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	var ok bool
	if filter.FromDate, ok = h.ParseDateQuery(c, "from"); !ok {
		return
	}
	if filter.ToDate, ok = h.ParseDateQuery(c, "to"); !ok {
		return
	}

	events, err := h.recorder.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": events})
}
