package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/offerly-io/offerly/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testRepo creates a sqlite-backed repository in a temp dir.
func testRepo(t *testing.T) *TemplateRepository {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Template{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db)
}

func insertTemplate(t *testing.T, repo *TemplateRepository, tenantID uuid.UUID, slug string) *models.Template {
	t.Helper()
	tmpl := &models.Template{
		TenantID: tenantID,
		Title:    "Offre standard",
		Slug:     slug,
		Category: "default",
	}
	if err := repo.Insert(context.Background(), tmpl); err != nil {
		t.Fatalf("insert template: %v", err)
	}
	return tmpl
}

func TestInsertAndFindBySlug(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()

	created := insertTemplate(t, repo, tenantA, "offre-standard")
	if created.ID == uuid.Nil {
		t.Fatal("insert should assign an ID")
	}

	found, err := repo.FindBySlug(context.Background(), tenantA, "offre-standard")
	if err != nil {
		t.Fatalf("find by slug: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("found ID = %s, want %s", found.ID, created.ID)
	}
}

func TestInsert_DuplicateSlug(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	insertTemplate(t, repo, tenantA, "offre-standard")

	err := repo.Insert(context.Background(), &models.Template{
		TenantID: tenantA,
		Title:    "Autre",
		Slug:     "offre-standard",
	})
	if !errors.Is(err, ErrDuplicateSlug) {
		t.Errorf("expected ErrDuplicateSlug, got %v", err)
	}
}

func TestInsert_SameSlugAcrossTenants(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	insertTemplate(t, repo, tenantA, "offre-standard")
	insertTemplate(t, repo, tenantB, "offre-standard")

	for _, tenantID := range []uuid.UUID{tenantA, tenantB} {
		taken, err := repo.SlugTaken(context.Background(), tenantID, "offre-standard")
		if err != nil {
			t.Fatalf("slug taken: %v", err)
		}
		if !taken {
			t.Errorf("slug should be taken for tenant %s", tenantID)
		}
	}
}

func TestSlugTaken(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	insertTemplate(t, repo, tenantA, "offre-standard")

	taken, err := repo.SlugTaken(context.Background(), tenantA, "offre-standard")
	if err != nil || !taken {
		t.Errorf("SlugTaken = (%v, %v), want (true, nil)", taken, err)
	}

	taken, err = repo.SlugTaken(context.Background(), tenantA, "libre")
	if err != nil || taken {
		t.Errorf("SlugTaken = (%v, %v), want (false, nil)", taken, err)
	}
}

func TestFindByID_TenantMismatchIndistinguishable(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	tenantB := uuid.New()
	created := insertTemplate(t, repo, tenantA, "offre-standard")

	_, wrongTenant := repo.FindByID(context.Background(), created.ID, tenantB)
	_, absent := repo.FindByID(context.Background(), uuid.New(), tenantA)

	if !errors.Is(wrongTenant, ErrNotFound) || !errors.Is(absent, ErrNotFound) {
		t.Errorf("both cases must be ErrNotFound, got %v / %v", wrongTenant, absent)
	}
}

func TestUpdate(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	tmpl := insertTemplate(t, repo, tenantA, "offre-standard")

	tmpl.Title = "Offre cadre"
	tmpl.Content = `{"version":1,"fields":[]}`
	tmpl.Tags = []string{"rh"}
	if err := repo.Update(context.Background(), tmpl); err != nil {
		t.Fatalf("update: %v", err)
	}

	found, err := repo.FindByID(context.Background(), tmpl.ID, tenantA)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.Title != "Offre cadre" || found.Content != `{"version":1,"fields":[]}` {
		t.Errorf("update not persisted: %+v", found)
	}
	if len(found.Tags) != 1 || found.Tags[0] != "rh" {
		t.Errorf("tags not persisted: %v", found.Tags)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	tmpl := insertTemplate(t, repo, tenantA, "offre-standard")

	tmpl.TenantID = uuid.New() // different tenant
	err := repo.Update(context.Background(), tmpl)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for tenant mismatch, got %v", err)
	}
}

func TestList_FiltersByTenantAndCategory(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	tenantB := uuid.New()

	insertTemplate(t, repo, tenantA, "offre-a")
	hiring := &models.Template{TenantID: tenantA, Title: "Embauche", Slug: "embauche", Category: "hiring_offer"}
	if err := repo.Insert(context.Background(), hiring); err != nil {
		t.Fatalf("insert: %v", err)
	}
	insertTemplate(t, repo, tenantB, "offre-b")

	all, err := repo.List(context.Background(), tenantA, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("tenant A should see 2 templates, got %d", len(all))
	}

	filtered, err := repo.List(context.Background(), tenantA, "hiring_offer")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(filtered) != 1 || filtered[0].Slug != "embauche" {
		t.Errorf("category filter returned %+v", filtered)
	}
}

func TestDelete(t *testing.T) {
	repo := testRepo(t)
	tenantA := uuid.New()
	tmpl := insertTemplate(t, repo, tenantA, "offre-standard")

	if err := repo.Delete(context.Background(), tmpl.ID, tenantA); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.FindByID(context.Background(), tmpl.ID, tenantA); !errors.Is(err, ErrNotFound) {
		t.Errorf("deleted template should be ErrNotFound, got %v", err)
	}

	err := repo.Delete(context.Background(), tmpl.ID, tenantA)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete should be ErrNotFound, got %v", err)
	}
}
