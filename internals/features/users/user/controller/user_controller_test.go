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
	userModel "policyhub_backend/internals/features/users/user/model"
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
	if err := db.AutoMigrate(&userModel.UserModel{}); err != nil {
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

	ctl := NewUserController(db)
	grp := app.Group("/api/users")
	grp.Get("/", ctl.List)
	grp.Get("/:id", ctl.GetByID)
	grp.Post("/:id/approve", ctl.Approve)
	grp.Post("/:id/suspend", ctl.Suspend)
	grp.Post("/:id/restore", ctl.Restore)
	grp.Patch("/:id/role", ctl.ChangeRole)
	grp.Delete("/:id", ctl.Delete)

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) userModel.UserModel {
	t.Helper()
	u := userModel.UserModel{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Seeded " + username,
		PasswordHash: "x",
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
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

func TestApproveIsAdminOnlyAndIdempotent(t *testing.T) {
	app, db := newTestApp(t)
	u := seedUser(t, db, "alice")

	res, _ := request(t, app, http.MethodPost, "/api/users/"+u.ID.String()+"/approve", constants.RolePolicyManager, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("manager approve status = %d, want 403", res.StatusCode)
	}

	for i := 0; i < 2; i++ {
		res, envelope := request(t, app, http.MethodPost, "/api/users/"+u.ID.String()+"/approve", constants.RoleAdmin, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("approve #%d status = %d", i+1, res.StatusCode)
		}
		data := envelope["data"].(map[string]any)
		if approved, _ := data["is_approved"].(bool); !approved {
			t.Fatalf("approve #%d left is_approved false", i+1)
		}
	}
}

func TestChangeRoleValidation(t *testing.T) {
	app, db := newTestApp(t)
	u := seedUser(t, db, "bob")

	res, _ := request(t, app, http.MethodPatch, "/api/users/"+u.ID.String()+"/role", constants.RoleAdmin, fiber.Map{
		"role": "superuser",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown role status = %d, want 400", res.StatusCode)
	}

	res, envelope := request(t, app, http.MethodPatch, "/api/users/"+u.ID.String()+"/role", constants.RoleAdmin, fiber.Map{
		"role": "Policy_Manager",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("change role status = %d", res.StatusCode)
	}
	data := envelope["data"].(map[string]any)
	if data["role"] != constants.RolePolicyManager {
		t.Fatalf("role = %v", data["role"])
	}
}

func TestDeleteIsIdempotentAndRestoreChecksIdentity(t *testing.T) {
	app, db := newTestApp(t)
	u := seedUser(t, db, "carol")

	for i := 0; i < 2; i++ {
		res, envelope := request(t, app, http.MethodDelete, "/api/users/"+u.ID.String(), constants.RoleAdmin, nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("delete #%d status = %d", i+1, res.StatusCode)
		}
		data := envelope["data"].(map[string]any)
		if deleted, _ := data["is_deleted"].(bool); !deleted {
			t.Fatalf("delete #%d: is_deleted false", i+1)
		}
	}

	// a new live account claims the same username
	seedUser(t, db, "carol")

	res, _ := request(t, app, http.MethodPost, "/api/users/"+u.ID.String()+"/restore", constants.RoleAdmin, nil)
	if res.StatusCode != http.StatusConflict {
		t.Fatalf("restore status = %d, want 409", res.StatusCode)
	}
}

func TestRestoreLiftsSuspension(t *testing.T) {
	app, db := newTestApp(t)
	u := seedUser(t, db, "dave")

	if res, _ := request(t, app, http.MethodPost, "/api/users/"+u.ID.String()+"/suspend", constants.RoleAdmin, nil); res.StatusCode != http.StatusOK {
		t.Fatalf("suspend failed")
	}
	res, envelope := request(t, app, http.MethodPost, "/api/users/"+u.ID.String()+"/restore", constants.RoleAdmin, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("restore status = %d", res.StatusCode)
	}
	data := envelope["data"].(map[string]any)
	if suspended, _ := data["is_suspended"].(bool); suspended {
		t.Fatal("restore left the account suspended")
	}
}

func TestListPendingFilter(t *testing.T) {
	app, db := newTestApp(t)
	pending := seedUser(t, db, "erin")
	approved := seedUser(t, db, "frank")
	if err := db.Model(&approved).Update("is_approved", true).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, envelope := request(t, app, http.MethodGet, "/api/users/?pending=true", constants.RoleAdmin, nil)
	rows := envelope["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("pending rows = %d, want 1", len(rows))
	}
	if rows[0].(map[string]any)["id"] != pending.ID.String() {
		t.Fatalf("pending row = %v", rows[0])
	}
}
