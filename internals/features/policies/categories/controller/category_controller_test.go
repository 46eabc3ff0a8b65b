package controller

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"policyhub_backend/internals/constants"
	categoryModel "policyhub_backend/internals/features/policies/categories/model"
	helper "policyhub_backend/internals/helpers"
)

// newTestApp mounts the controller behind a middleware that injects the
// identity locals the way the JWT middleware would.
func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&categoryModel.CategoryModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		role := c.Get("X-Test-Role")
		if role != "" {
			c.Locals("user_id", uuid.New().String())
			c.Locals("user_name", "tester")
			c.Locals("userRole", role)
		}
		return c.Next()
	})

	ctl := NewCategoryController(db)
	grp := app.Group("/api/categories")
	grp.Get("/", ctl.List)
	grp.Get("/:id", ctl.GetByID)
	grp.Post("/", ctl.Create)
	grp.Patch("/:id", ctl.Update)
	grp.Delete("/:id", ctl.Delete)
	grp.Post("/:id/restore", ctl.Restore)

	return app, db
}

func request(t *testing.T, app *fiber.App, method, target, role string, payload any) (*http.Response, map[string]any) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	res, err := app.Test(req, 5000)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	var envelope map[string]any
	raw, _ := io.ReadAll(res.Body)
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &envelope)
	}
	return res, envelope
}

func createCategory(t *testing.T, app *fiber.App, role, name, code string) (int, map[string]any) {
	t.Helper()
	res, envelope := request(t, app, http.MethodPost, "/api/categories/", role, fiber.Map{
		"category_name": name,
		"category_code": code,
	})
	return res.StatusCode, envelope
}

func TestCreateCategoryAndCodeConflict(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := createCategory(t, app, constants.RolePolicyManager, "Human Resources", "hr")
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["category_code"] != "HR" {
		t.Fatalf("code not uppercased: %v", data["category_code"])
	}

	// same code, different case: still a conflict
	status, _ = createCategory(t, app, constants.RoleAdmin, "Another", "Hr")
	if status != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", status)
	}
}

func TestCreateCategoryValidationEnvelope(t *testing.T) {
	app, _ := newTestApp(t)

	// missing name: field-level validation envelope, not a bare 400
	res, envelope := request(t, app, http.MethodPost, "/api/categories/", constants.RoleAdmin, fiber.Map{
		"category_code": "HR",
	})
	if res.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", res.StatusCode)
	}
	if envelope["error_code"] != "VALIDATION_ERROR" {
		t.Fatalf("error_code = %v", envelope["error_code"])
	}
	fields := envelope["errors"].(map[string]any)
	if _, ok := fields["name"]; !ok {
		t.Fatalf("missing field error for name: %v", fields)
	}
}

func TestCreateCategoryForbiddenForReader(t *testing.T) {
	app, _ := newTestApp(t)
	status, _ := createCategory(t, app, constants.RoleUser, "Nope", "NO")
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
}

func TestDeleteFreesCodeAndRestoreConflicts(t *testing.T) {
	app, db := newTestApp(t)

	status, envelope := createCategory(t, app, constants.RoleAdmin, "Human Resources", "HR")
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	firstID := envelope["data"].(map[string]any)["category_id"].(string)

	// delete is admin-only
	res, _ := request(t, app, http.MethodDelete, "/api/categories/"+firstID, constants.RolePolicyManager, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("manager delete status = %d, want 403", res.StatusCode)
	}
	res, _ = request(t, app, http.MethodDelete, "/api/categories/"+firstID, constants.RoleAdmin, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", res.StatusCode)
	}

	// deleting released the code for reuse
	status, _ = createCategory(t, app, constants.RoleAdmin, "HR Reborn", "HR")
	if status != http.StatusCreated {
		t.Fatalf("recreate status = %d", status)
	}

	// now the original cannot come back under the same code
	res, _ = request(t, app, http.MethodPost, "/api/categories/"+firstID+"/restore", constants.RoleAdmin, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("restore status = %d, want 409", res.StatusCode)
	}

	// the soft-deleted row is still there underneath
	var cnt int64
	if err := db.Unscoped().Model(&categoryModel.CategoryModel{}).Count(&cnt).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if cnt != 2 {
		t.Fatalf("unscoped count = %d, want 2", cnt)
	}
}

func TestListHidesDeletedFromNonAdmins(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := createCategory(t, app, constants.RoleAdmin, "Operations", "OPS")
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	id := envelope["data"].(map[string]any)["category_id"].(string)
	if res, _ := request(t, app, http.MethodDelete, "/api/categories/"+id, constants.RoleAdmin, nil); res.StatusCode != http.StatusOK {
		t.Fatalf("delete failed")
	}

	// even with the flag, a manager sees no deleted rows
	_, envelope = request(t, app, http.MethodGet, "/api/categories/?with_deleted=true", constants.RolePolicyManager, nil)
	if rows := envelope["data"].([]any); len(rows) != 0 {
		t.Fatalf("manager sees %d rows, want 0", len(rows))
	}

	_, envelope = request(t, app, http.MethodGet, "/api/categories/?with_deleted=true", constants.RoleAdmin, nil)
	rows := envelope["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("admin sees %d rows, want 1", len(rows))
	}
	if deleted, _ := rows[0].(map[string]any)["is_deleted"].(bool); !deleted {
		t.Fatal("is_deleted not reported")
	}
}

func TestUpdateCategoryPartial(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := createCategory(t, app, constants.RoleAdmin, "Operations", "OPS")
	if status != http.StatusCreated {
		t.Fatalf("create status = %d", status)
	}
	id := envelope["data"].(map[string]any)["category_id"].(string)

	res, envelope := request(t, app, http.MethodPatch, "/api/categories/"+id, constants.RolePolicyManager, fiber.Map{
		"category_name": "Operations & Facilities",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", res.StatusCode)
	}
	data := envelope["data"].(map[string]any)
	if data["category_name"] != "Operations & Facilities" {
		t.Fatalf("name = %v", data["category_name"])
	}
	if data["category_code"] != "OPS" {
		t.Fatalf("code changed unexpectedly: %v", data["category_code"])
	}
}
