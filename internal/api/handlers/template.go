package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/offerly-io/offerly/internal/auth"
	"github.com/offerly-io/offerly/internal/service"
)

// TemplateHandler serves the template CRUD endpoints.
type TemplateHandler struct {
	svc *service.TemplateService
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(svc *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{svc: svc}
}

// CreateTemplateRequest is the JSON body for template creation.
type CreateTemplateRequest struct {
	Title    string   `json:"title" binding:"required"`
	Slug     string   `json:"slug"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// UpdateTemplateRequest is the JSON body for template updates. Absent
// keys leave the corresponding attribute untouched.
type UpdateTemplateRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Category *string   `json:"category"`
	Tags     *[]string `json:"tags"`
}

// identity pulls the tenant and user from the verified claims.
func identity(c *gin.Context) (tenantID, userID uuid.UUID, ok bool) {
	tenantID, err := auth.TenantID(c)
	if err == nil {
		userID, err = auth.UserID(c)
	}
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid identity claims"})
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

func templateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid template id"})
		return uuid.Nil, false
	}
	return id, true
}

// ListTemplates godoc
// @Summary List the tenant's templates
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param category query string false "Filter by category"
// @Success 200 {array} models.Template
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}

	templates, err := h.svc.List(c.Request.Context(), tenantID, c.Query("category"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

// CreateTemplate godoc
// @Summary Create a new template
// @Tags templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param template body CreateTemplateRequest true "Template details"
// @Success 201 {object} models.Template
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}

	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	tmpl, err := h.svc.Create(c.Request.Context(), service.CreateRequest{
		Title:    req.Title,
		Slug:     req.Slug,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}, tenantID, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tmpl)
}

// GetTemplate godoc
// @Summary Get a template by ID
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} models.Template
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	tmpl, err := h.svc.Get(c.Request.Context(), id, tenantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// UpdateTemplate godoc
// @Summary Update a template
// @Tags templates
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param template body UpdateTemplateRequest true "Fields to update"
// @Success 200 {object} models.Template
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /templates/{id} [put]
func (h *TemplateHandler) UpdateTemplate(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	var req UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	tmpl, err := h.svc.Update(c.Request.Context(), id, tenantID, service.UpdateRequest{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Tags:     req.Tags,
	}, userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

// DeleteTemplate godoc
// @Summary Delete a template
// @Tags templates
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c *gin.Context) {
	tenantID, userID, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id, tenantID, userID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetTemplateContent godoc
// @Summary Inspect a template's decoded content
// @Description Returns the decoded field list along with its state:
// @Description "empty" (no content yet), "corrupt" (damaged, with reason)
// @Description or "ok".
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} service.ContentInspection
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /templates/{id}/content [get]
func (h *TemplateHandler) GetTemplateContent(c *gin.Context) {
	tenantID, _, ok := identity(c)
	if !ok {
		return
	}
	id, ok := templateID(c)
	if !ok {
		return
	}

	inspection, err := h.svc.InspectContent(c.Request.Context(), id, tenantID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, inspection)
}

// ListCategories godoc
// @Summary List template categories with business-key configs
// @Tags templates
// @Security BearerAuth
// @Produce json
// @Success 200 {array} string
// @Failure 401 {object} ErrorResponse
// @Router /template-categories [get]
func (h *TemplateHandler) ListCategories(c *gin.Context) {
	categories := append([]string{service.DefaultCategory}, h.svc.Registry().Categories()...)
	c.JSON(http.StatusOK, categories)
}
