// Package repository provides tenant-scoped persistence for templates.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/offerly-io/offerly/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when no template matches (id, tenant).
	// Tenant mismatch and true absence are intentionally indistinguishable
	// so cross-tenant existence never leaks.
	ErrNotFound = errors.New("template not found")

	// ErrDuplicateSlug is returned when an insert hits the unique index
	// on (tenant_id, slug).
	ErrDuplicateSlug = errors.New("slug already exists for this tenant")
)

// TemplateRepository is the gorm-backed template store.
type TemplateRepository struct {
	db *gorm.DB
}

// New creates a new TemplateRepository.
func New(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

// FindBySlug returns the template with the given slug within a tenant,
// or ErrNotFound.
func (r *TemplateRepository) FindBySlug(ctx context.Context, tenantID uuid.UUID, slug string) (*models.Template, error) {
	var tmpl models.Template
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND slug = ?", tenantID, slug).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find template by slug: %w", err)
	}
	return &tmpl, nil
}

// SlugTaken reports whether a slug is already in use within a tenant.
// Satisfies slug.Checker.
func (r *TemplateRepository) SlugTaken(ctx context.Context, tenantID uuid.UUID, slug string) (bool, error) {
	_, err := r.FindBySlug(ctx, tenantID, slug)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return false, err
}

// FindByID returns the template with the given id within a tenant, or
// ErrNotFound.
func (r *TemplateRepository) FindByID(ctx context.Context, id, tenantID uuid.UUID) (*models.Template, error) {
	var tmpl models.Template
	err := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		First(&tmpl).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find template by id: %w", err)
	}
	return &tmpl, nil
}

// List returns a tenant's templates, newest first, optionally filtered
// by category.
func (r *TemplateRepository) List(ctx context.Context, tenantID uuid.UUID, category string) ([]models.Template, error) {
	query := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var templates []models.Template
	if err := query.Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

// Insert persists a new template. A unique-index violation on
// (tenant_id, slug) is mapped to ErrDuplicateSlug so callers can retry
// with fresh slug arbitration.
func (r *TemplateRepository) Insert(ctx context.Context, tmpl *models.Template) error {
	if err := r.db.WithContext(ctx).Create(tmpl).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSlug
		}
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

// Update writes the mutable columns of tmpl back, scoped to its tenant.
// Returns ErrNotFound when no row matches (id, tenant).
func (r *TemplateRepository) Update(ctx context.Context, tmpl *models.Template) error {
	res := r.db.WithContext(ctx).
		Model(&models.Template{}).
		Where("id = ? AND tenant_id = ?", tmpl.ID, tmpl.TenantID).
		Select("title", "content", "category", "tags").
		Updates(tmpl)
	if res.Error != nil {
		return fmt.Errorf("update template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete soft-deletes the template. Returns ErrNotFound when no row
// matches (id, tenant).
func (r *TemplateRepository) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Delete(&models.Template{})
	if res.Error != nil {
		return fmt.Errorf("delete template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation detects duplicate-key errors across the supported
// drivers. GORM translates these for postgres; the sqlite driver
// surfaces the raw constraint message.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}
