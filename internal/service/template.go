package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/offerly-io/offerly/internal/audit"
	"github.com/offerly-io/offerly/internal/enrich"
	"github.com/offerly-io/offerly/internal/models"
	"github.com/offerly-io/offerly/internal/repository"
	"github.com/offerly-io/offerly/internal/schema"
	"github.com/offerly-io/offerly/internal/slug"
	"gorm.io/gorm"
)

// DefaultCategory is the fallback category; it carries no business-key
// config and enrichment leaves its fields untouched.
const DefaultCategory = "default"

// maxInsertAttempts bounds the slug-conflict retry loop. Arbitration is
// read-then-decide, so a concurrent writer can still win the insert; each
// retry re-runs arbitration with fresh entropy.
const maxInsertAttempts = 3

// TemplateService contains the business logic for template operations.
type TemplateService struct {
	db       *gorm.DB
	repo     *repository.TemplateRepository
	registry *enrich.Registry
}

// New creates a new TemplateService.
func New(db *gorm.DB, registry *enrich.Registry) *TemplateService {
	return &TemplateService{db: db, repo: repository.New(db), registry: registry}
}

// Repo exposes the underlying repository (used by the router for wiring).
func (s *TemplateService) Repo() *repository.TemplateRepository { return s.repo }

// Registry returns the business-key registry the service enriches with.
func (s *TemplateService) Registry() *enrich.Registry { return s.registry }

// Create validates the content envelope, enriches it with the category's
// business keys, resolves a tenant-unique slug, and persists the
// template. An insert that still hits the (tenant_id, slug) unique index
// is retried with a fresh arbitration pass, bounded at maxInsertAttempts.
func (s *TemplateService) Create(ctx context.Context, req CreateRequest, tenantID, userID uuid.UUID) (*models.Template, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, &ValidationError{Message: "title is required"}
	}

	category := req.Category
	if category == "" {
		category = DefaultCategory
	}

	fields, err := s.prepareContent(req.Content, category)
	if err != nil {
		return nil, err
	}
	content, err := schema.SerializeContent(fields)
	if err != nil {
		return nil, fmt.Errorf("serialize content: %w", err)
	}

	candidate := req.Slug
	if candidate == "" {
		candidate = title
	}
	candidate = slug.Make(candidate)

	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		resolved, err := slug.EnsureUnique(ctx, s.repo, tenantID, candidate)
		if err != nil {
			return nil, fmt.Errorf("resolve slug: %w", err)
		}

		tmpl := &models.Template{
			TenantID: tenantID,
			Title:    title,
			Slug:     resolved,
			Content:  content,
			Category: category,
			Tags:     req.Tags,
		}

		err = s.repo.Insert(ctx, tmpl)
		if err == nil {
			audit.LogAction(s.db, tenantID, userID, audit.ActionCreateTemplate,
				fmt.Sprintf("template:%s", tmpl.ID), map[string]interface{}{
					"title":    title,
					"slug":     resolved,
					"category": category,
				})
			return tmpl, nil
		}
		if !errors.Is(err, repository.ErrDuplicateSlug) {
			return nil, err
		}
		// Lost the race to a concurrent writer; arbitrate again.
		slog.Warn("slug conflict on insert, retrying",
			"tenant_id", tenantID, "slug", resolved, "attempt", attempt)
	}

	return nil, &ConflictError{Message: "could not allocate a unique identifier, please retry"}
}

// Get returns a single template scoped to the tenant.
func (s *TemplateService) Get(ctx context.Context, id, tenantID uuid.UUID) (*models.Template, error) {
	tmpl, err := s.repo.FindByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return tmpl, nil
}

// List returns the tenant's templates, optionally filtered by category.
func (s *TemplateService) List(ctx context.Context, tenantID uuid.UUID, category string) ([]models.Template, error) {
	return s.repo.List(ctx, tenantID, category)
}

// Update applies a partial update. A content change replaces the whole
// envelope and is re-validated and re-enriched on the way in; the slug is
// fixed at create time and never changes.
func (s *TemplateService) Update(ctx context.Context, id, tenantID uuid.UUID, req UpdateRequest, userID uuid.UUID) (*models.Template, error) {
	tmpl, err := s.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, &ValidationError{Message: "title cannot be empty"}
		}
		tmpl.Title = title
	}
	if req.Category != nil {
		category := *req.Category
		if category == "" {
			category = DefaultCategory
		}
		tmpl.Category = category
	}
	if req.Tags != nil {
		tmpl.Tags = *req.Tags
	}
	if req.Content != nil {
		fields, err := s.prepareContent(*req.Content, tmpl.Category)
		if err != nil {
			return nil, err
		}
		content, err := schema.SerializeContent(fields)
		if err != nil {
			return nil, fmt.Errorf("serialize content: %w", err)
		}
		tmpl.Content = content
	}

	if err := s.repo.Update(ctx, tmpl); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	audit.LogAction(s.db, tenantID, userID, audit.ActionUpdateTemplate,
		fmt.Sprintf("template:%s", tmpl.ID), map[string]interface{}{
			"title": tmpl.Title,
		})

	return tmpl, nil
}

// Delete removes the template for the tenant.
func (s *TemplateService) Delete(ctx context.Context, id, tenantID, userID uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, tenantID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	audit.LogAction(s.db, tenantID, userID, audit.ActionDeleteTemplate,
		fmt.Sprintf("template:%s", id), nil)
	return nil
}

// InspectContent decodes a template's stored envelope and reports its
// state verbatim: empty, corrupt (with the diagnostic), or the validated
// field list. The caller decides the policy for corrupt content.
func (s *TemplateService) InspectContent(ctx context.Context, id, tenantID uuid.UUID) (*ContentInspection, error) {
	tmpl, err := s.Get(ctx, id, tenantID)
	if err != nil {
		return nil, err
	}

	res := schema.ParseContent(tmpl.Content)
	inspection := &ContentInspection{
		State:  res.State.String(),
		Fields: res.Fields,
		Reason: res.Reason,
	}
	if inspection.Fields == nil {
		inspection.Fields = []schema.FieldDefinition{}
	}
	return inspection, nil
}

// prepareContent parses and validates a raw envelope for a write, assigns
// IDs to fields that lack one, and enriches the result for the category.
// Corrupt or structurally invalid content rejects the whole write.
func (s *TemplateService) prepareContent(raw, category string) ([]schema.FieldDefinition, error) {
	res := schema.ParseContent(raw)
	switch res.State {
	case schema.ContentCorrupt:
		return nil, &ValidationError{Message: "invalid template content: " + res.Reason}
	case schema.ContentEmpty:
		return []schema.FieldDefinition{}, nil
	}

	fields := res.Fields
	for i := range fields {
		if fields[i].ID == "" {
			fields[i].ID = uuid.NewString()
		}
	}
	return s.registry.Enrich(fields, category), nil
}
