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
	typeModel "policyhub_backend/internals/features/policies/policy_types/model"
	helper "policyhub_backend/internals/helpers"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&typeModel.PolicyTypeModel{}); err != nil {
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

	ctl := NewPolicyTypeController(db)
	grp := app.Group("/api/policy-types")
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

func createType(t *testing.T, app *fiber.App, role, name, code string) (int, map[string]any) {
	t.Helper()
	res, envelope := request(t, app, http.MethodPost, "/api/policy-types/", role, fiber.Map{
		"policy_type_name": name,
		"policy_type_code": code,
	})
	return res.StatusCode, envelope
}

func TestCreateTypeDefaultsActiveAndCodeConflict(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := createType(t, app, constants.RolePolicyManager, "Policy", "pol")
	if status != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", status, envelope)
	}
	data := envelope["data"].(map[string]any)
	if data["policy_type_code"] != "POL" {
		t.Fatalf("code not uppercased: %v", data["policy_type_code"])
	}
	if active, _ := data["is_active"].(bool); !active {
		t.Fatal("new type not active by default")
	}

	status, _ = createType(t, app, constants.RoleAdmin, "Other", "POL")
	if status != http.StatusConflict {
		t.Fatalf("duplicate status = %d, want 409", status)
	}
}

func TestCreateInactiveTypePersistsInactive(t *testing.T) {
	app, db := newTestApp(t)

	active := false
	res, envelope := request(t, app, http.MethodPost, "/api/policy-types/", constants.RoleAdmin, fiber.Map{
		"policy_type_name":      "Legacy",
		"policy_type_code":      "LGC",
		"policy_type_is_active": active,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, body = %v", res.StatusCode, envelope)
	}
	data := envelope["data"].(map[string]any)
	if got, _ := data["is_active"].(bool); got {
		t.Fatal("response reports the type as active")
	}

	// the stored row must keep the explicit false, not a column default
	var m typeModel.PolicyTypeModel
	if err := db.First(&m, "policy_type_id = ?", data["policy_type_id"]).Error; err != nil {
		t.Fatalf("reload type: %v", err)
	}
	if m.PolicyTypeIsActive {
		t.Fatal("inactive type persisted as active")
	}
}

func TestActiveFilterForPickers(t *testing.T) {
	app, _ := newTestApp(t)

	if status, _ := createType(t, app, constants.RoleAdmin, "Policy", "POL"); status != http.StatusCreated {
		t.Fatal("seed POL failed")
	}
	status, envelope := createType(t, app, constants.RoleAdmin, "Guideline", "GDL")
	if status != http.StatusCreated {
		t.Fatal("seed GDL failed")
	}
	gdlID := envelope["data"].(map[string]any)["policy_type_id"].(string)

	active := false
	res, _ := request(t, app, http.MethodPatch, "/api/policy-types/"+gdlID, constants.RoleAdmin, fiber.Map{
		"policy_type_is_active": active,
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("deactivate status = %d", res.StatusCode)
	}

	// the picker only offers active types
	_, envelope = request(t, app, http.MethodGet, "/api/policy-types/?active=true", constants.RoleUser, nil)
	rows := envelope["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("picker rows = %d, want 1", len(rows))
	}
	if rows[0].(map[string]any)["policy_type_code"] != "POL" {
		t.Fatalf("picker row = %v", rows[0])
	}

	// without the filter both remain listed
	_, envelope = request(t, app, http.MethodGet, "/api/policy-types/", constants.RoleUser, nil)
	if rows := envelope["data"].([]any); len(rows) != 2 {
		t.Fatalf("unfiltered rows = %d, want 2", len(rows))
	}
}

func TestTypeRestoreCodeConflict(t *testing.T) {
	app, _ := newTestApp(t)

	status, envelope := createType(t, app, constants.RoleAdmin, "Policy", "POL")
	if status != http.StatusCreated {
		t.Fatal("create failed")
	}
	id := envelope["data"].(map[string]any)["policy_type_id"].(string)

	if res, _ := request(t, app, http.MethodDelete, "/api/policy-types/"+id, constants.RoleAdmin, nil); res.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", res.StatusCode)
	}
	if status, _ := createType(t, app, constants.RoleAdmin, "Policy v2", "POL"); status != http.StatusCreated {
		t.Fatalf("recreate status = %d", status)
	}

	res, _ := request(t, app, http.MethodPost, "/api/policy-types/"+id+"/restore", constants.RoleAdmin, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("restore status = %d, want 409", res.StatusCode)
	}
}
