package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/offerly-io/offerly/internal/enrich"
	"github.com/offerly-io/offerly/internal/models"
	"github.com/offerly-io/offerly/internal/schema"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testSetup creates a sqlite-backed TemplateService with the compiled-in
// business-key registry.
func testSetup(t *testing.T) (*TemplateService, *gorm.DB) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	// Single writer, as in production sqlite configuration.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.Template{}, &models.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	return New(db, enrich.DefaultRegistry()), db
}

func TestCreate_Defaults(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{Title: "Offre Standard"}, tenantID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Slug != "offre-standard" {
		t.Errorf("slug = %q, want derived from title", tmpl.Slug)
	}
	if tmpl.Category != DefaultCategory {
		t.Errorf("category = %q, want %q", tmpl.Category, DefaultCategory)
	}
	if tmpl.Content != `{"version":1,"fields":[]}` {
		t.Errorf("content = %s, want an empty envelope", tmpl.Content)
	}
}

func TestCreate_EmptyTitle(t *testing.T) {
	svc, _ := testSetup(t)

	_, err := svc.Create(context.Background(), CreateRequest{Title: "   "}, uuid.New(), uuid.New())

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
}

func TestCreate_ValidatesAndEnrichesContent(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{
		Title:    "Offre d'embauche",
		Category: "hiring_offer",
		Content:  `{"fields":[{"field_name":"poste","field_type":"text"},{"field_name":"champ_libre","field_type":"textarea"}]}`,
	}, tenantID, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := schema.ParseContent(tmpl.Content)
	if res.State != schema.ContentOK || len(res.Fields) != 2 {
		t.Fatalf("stored content did not parse back: %v (%s)", res.State, res.Reason)
	}

	poste := res.Fields[0]
	if poste.ID == "" {
		t.Error("fields should receive a stable id on create")
	}
	if key := poste.MetaString(schema.MetaBusinessKey); key != "offer.positionTitle" {
		t.Errorf("businessKey = %q, want offer.positionTitle", key)
	}
	if raw := poste.MetaString(schema.MetaPlaceholderRaw); raw != "{{poste}}" {
		t.Errorf("placeholderRaw = %q, want back-filled {{poste}}", raw)
	}

	if key := res.Fields[1].MetaString(schema.MetaBusinessKey); key != "" {
		t.Errorf("unmapped field should stay unenriched, got businessKey %q", key)
	}
}

func TestCreate_RejectsCorruptContent(t *testing.T) {
	svc, _ := testSetup(t)

	for name, content := range map[string]string{
		"invalid json":           `{"fields":`,
		"invalid field":          `{"fields":[{"field_name":"","field_type":"text"}]}`,
		"select without options": `{"fields":[{"field_name":"contrat","field_type":"select"}]}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), CreateRequest{
				Title:   "Offre",
				Content: content,
			}, uuid.New(), uuid.New())

			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestCreate_SlugCollisionGetsSuffix(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	first, err := svc.Create(context.Background(), CreateRequest{Title: "Offre Standard"}, tenantID, userID)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := svc.Create(context.Background(), CreateRequest{Title: "Offre Standard"}, tenantID, userID)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if first.Slug != "offre-standard" {
		t.Errorf("first slug = %q", first.Slug)
	}
	if !regexp.MustCompile(`^offre-standard-\d+`).MatchString(second.Slug) {
		t.Errorf("second slug = %q, want a suffixed derivation", second.Slug)
	}
	if first.Slug == second.Slug {
		t.Error("slugs must be distinct within a tenant")
	}
}

func TestCreate_SameSlugAcrossTenants(t *testing.T) {
	svc, _ := testSetup(t)
	userID := uuid.New()

	a, err := svc.Create(context.Background(), CreateRequest{Title: "Offre Standard"}, uuid.New(), userID)
	if err != nil {
		t.Fatalf("tenant A create: %v", err)
	}
	b, err := svc.Create(context.Background(), CreateRequest{Title: "Offre Standard"}, uuid.New(), userID)
	if err != nil {
		t.Fatalf("tenant B create: %v", err)
	}

	if a.Slug != "offre-standard" || b.Slug != "offre-standard" {
		t.Errorf("slugs = %q / %q; no arbitration should trigger across tenants", a.Slug, b.Slug)
	}
}

func TestCreate_ConcurrentSameCandidate(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID := uuid.New()

	const writers = 4
	var (
		mu    sync.Mutex
		slugs []string
	)

	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			tmpl, err := svc.Create(context.Background(), CreateRequest{Title: "Offre Standard"}, tenantID, uuid.New())
			if err != nil {
				// A bounded conflict surfacing as ConflictError is an
				// acceptable outcome of the race; anything else is not.
				var ce *ConflictError
				if errors.As(err, &ce) {
					return nil
				}
				return err
			}
			mu.Lock()
			slugs = append(slugs, tmpl.Slug)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent create failed: %v", err)
	}

	if len(slugs) == 0 {
		t.Fatal("at least one concurrent create must win")
	}
	seen := make(map[string]bool, len(slugs))
	for _, s := range slugs {
		if seen[s] {
			t.Errorf("duplicate slug %q slipped through the unique index", s)
		}
		seen[s] = true
	}
}

func TestUpdate_ReplacesWholeEnvelope(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{
		Title:   "Offre",
		Content: `{"fields":[{"field_name":"poste","field_type":"text"}]}`,
	}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newContent := `{"fields":[{"field_name":"salaire","field_type":"number"}]}`
	updated, err := svc.Update(context.Background(), tmpl.ID, tenantID, UpdateRequest{Content: &newContent}, userID)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	res := schema.ParseContent(updated.Content)
	if res.State != schema.ContentOK || len(res.Fields) != 1 || res.Fields[0].Name != "salaire" {
		t.Errorf("envelope was not replaced whole: %s", updated.Content)
	}
	if updated.Slug != tmpl.Slug {
		t.Errorf("slug changed on update: %q -> %q", tmpl.Slug, updated.Slug)
	}
}

func TestUpdate_RejectsInvalidContent(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{Title: "Offre"}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := `{"fields":[{"field_type":"text"}]}`
	_, err = svc.Update(context.Background(), tmpl.ID, tenantID, UpdateRequest{Content: &bad}, userID)

	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}

	// The stored content must be untouched.
	stored, err := svc.Get(context.Background(), tmpl.ID, tenantID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Content != tmpl.Content {
		t.Error("a rejected update must not modify stored content")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{Title: "Offre"}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Nouveau titre"
	// Another tenant must see the same not-found as a missing id.
	_, err = svc.Update(context.Background(), tmpl.ID, uuid.New(), UpdateRequest{Title: &title}, userID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for tenant mismatch, got %v", err)
	}
	_, err = svc.Update(context.Background(), uuid.New(), tenantID, UpdateRequest{Title: &title}, userID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing id, got %v", err)
	}
}

func TestInspectContent_States(t *testing.T) {
	svc, db := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	empty, err := svc.Create(context.Background(), CreateRequest{Title: "Vide"}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	filled, err := svc.Create(context.Background(), CreateRequest{
		Title:   "Remplie",
		Content: `{"fields":[{"field_name":"poste","field_type":"text"}]}`,
	}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Simulate on-disk corruption behind the service's back.
	corrupted, err := svc.Create(context.Background(), CreateRequest{Title: "Abîmée"}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := db.Model(&models.Template{}).
		Where("id = ?", corrupted.ID).
		Update("content", `{"version":`).Error; err != nil {
		t.Fatalf("corrupt content: %v", err)
	}

	// A created template serializes an empty envelope, which inspects as ok.
	inspection, err := svc.InspectContent(context.Background(), empty.ID, tenantID)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if inspection.State != "ok" || len(inspection.Fields) != 0 {
		t.Errorf("empty template inspection = %+v", inspection)
	}

	inspection, err = svc.InspectContent(context.Background(), filled.ID, tenantID)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if inspection.State != "ok" || len(inspection.Fields) != 1 {
		t.Errorf("filled template inspection = %+v", inspection)
	}

	inspection, err = svc.InspectContent(context.Background(), corrupted.ID, tenantID)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if inspection.State != "corrupt" || inspection.Reason == "" {
		t.Errorf("corrupted template inspection = %+v", inspection)
	}
	if len(inspection.Fields) != 0 {
		t.Error("corrupt content must not yield fields")
	}
}

func TestDelete(t *testing.T) {
	svc, _ := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{Title: "Offre"}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(context.Background(), tmpl.ID, tenantID, userID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), tmpl.ID, tenantID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCreate_WritesAuditLog(t *testing.T) {
	svc, db := testSetup(t)
	tenantID, userID := uuid.New(), uuid.New()

	tmpl, err := svc.Create(context.Background(), CreateRequest{Title: "Offre"}, tenantID, userID)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var entry models.AuditLog
	if err := db.Where("tenant_id = ? AND action = ?", tenantID, "create_template").First(&entry).Error; err != nil {
		t.Fatalf("audit entry not written: %v", err)
	}
	if entry.Resource != fmt.Sprintf("template:%s", tmpl.ID) {
		t.Errorf("audit resource = %q", entry.Resource)
	}
	if entry.UserID != userID {
		t.Errorf("audit user = %s, want %s", entry.UserID, userID)
	}
}
