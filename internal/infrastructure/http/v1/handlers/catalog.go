package handlers

import (
	"github.com/gin-gonic/gin"

	"pharmaledger/internal/domain/catalog"
	"pharmaledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler serves CRUD for one catalog entity type.
// C and U are the create/update request DTO types.
type CatalogHandler[T catalog.Validatable, C any, U any] struct {
	*BaseHandler
	service     *catalog.Service[T]
	mapCreate   func(*C) T
	applyUpdate func(*U, T)
}

// NewCatalogHandler creates a handler for one catalog entity type.
func NewCatalogHandler[T catalog.Validatable, C any, U any](
	base *BaseHandler,
	service *catalog.Service[T],
	mapCreate func(*C) T,
	applyUpdate func(*U, T),
) *CatalogHandler[T, C, U] {
	return &CatalogHandler[T, C, U]{
		BaseHandler: base,
		service:     service,
		mapCreate:   mapCreate,
		applyUpdate: applyUpdate,
	}
}

// Create handles POST.
func (h *CatalogHandler[T, C, U]) Create(c *gin.Context) {
	var req C
	if !h.BindJSON(c, &req) {
		return
	}

	entity := h.mapCreate(&req)
	if err := h.service.Create(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entity)
}

// Get handles GET /:id.
func (h *CatalogHandler[T, C, U]) Get(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Update handles PUT /:id with partial semantics.
func (h *CatalogHandler[T, C, U]) Update(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	var req U
	if !h.BindJSON(c, &req) {
		return
	}

	entity, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.applyUpdate(&req, entity)
	if err := h.service.Update(c.Request.Context(), entity); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, entity)
}

// Delete handles DELETE /:id.
func (h *CatalogHandler[T, C, U]) Delete(c *gin.Context) {
	entityID, ok := h.ParseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET with search and pagination.
func (h *CatalogHandler[T, C, U]) List(c *gin.Context) {
	filter := catalog.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	if orderBy := c.Query("orderBy"); orderBy != "" {
		filter.OrderBy = orderBy
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

// NewManufacturerHandler wires the manufacturer CRUD surface.
func NewManufacturerHandler(base *BaseHandler, service *catalog.Service[*catalog.Manufacturer]) *CatalogHandler[*catalog.Manufacturer, dto.CreateManufacturerRequest, dto.UpdateManufacturerRequest] {
	return NewCatalogHandler(base, service,
		func(req *dto.CreateManufacturerRequest) *catalog.Manufacturer { return req.ToEntity() },
		func(req *dto.UpdateManufacturerRequest, m *catalog.Manufacturer) { req.ApplyTo(m) },
	)
}

// NewCategoryHandler wires the category CRUD surface.
func NewCategoryHandler(base *BaseHandler, service *catalog.Service[*catalog.Category]) *CatalogHandler[*catalog.Category, dto.CreateCategoryRequest, dto.UpdateCategoryRequest] {
	return NewCatalogHandler(base, service,
		func(req *dto.CreateCategoryRequest) *catalog.Category { return req.ToEntity() },
		func(req *dto.UpdateCategoryRequest, cat *catalog.Category) { req.ApplyTo(cat) },
	)
}

// NewProductHandler wires the product CRUD surface.
func NewProductHandler(base *BaseHandler, service *catalog.Service[*catalog.Product]) *CatalogHandler[*catalog.Product, dto.CreateProductRequest, dto.UpdateProductRequest] {
	return NewCatalogHandler(base, service,
		func(req *dto.CreateProductRequest) *catalog.Product { return req.ToEntity() },
		func(req *dto.UpdateProductRequest, p *catalog.Product) { req.ApplyTo(p) },
	)
}

// NewCustomerHandler wires the customer CRUD surface.
func NewCustomerHandler(base *BaseHandler, service *catalog.Service[*catalog.Customer]) *CatalogHandler[*catalog.Customer, dto.CreateCustomerRequest, dto.UpdateCustomerRequest] {
	return NewCatalogHandler(base, service,
		func(req *dto.CreateCustomerRequest) *catalog.Customer { return req.ToEntity() },
		func(req *dto.UpdateCustomerRequest, cust *catalog.Customer) { req.ApplyTo(cust) },
	)
}
