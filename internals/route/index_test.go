package route

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"policyhub_backend/internals/configs"
	"policyhub_backend/internals/constants"
	categoryModel "policyhub_backend/internals/features/policies/categories/model"
	policyModel "policyhub_backend/internals/features/policies/policies/model"
	typeModel "policyhub_backend/internals/features/policies/policy_types/model"
	userModel "policyhub_backend/internals/features/users/user/model"
	helper "policyhub_backend/internals/helpers"
	"policyhub_backend/internals/helpers/storage"
)

func newTestApp(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()
	configs.JWTSecret = "test-secret"

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&userModel.UserModel{},
		&categoryModel.CategoryModel{},
		&typeModel.PolicyTypeModel{},
		&policyModel.PolicyModel{},
		&policyModel.PolicyVersionModel{},
		&policyModel.PolicyNumberSequenceModel{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: helper.FiberErrorHandler})
	SetupRoutes(app, db, &storage.MockBlobService{})
	return app, db
}

func seedAccount(t *testing.T, db *gorm.DB, username, role string, approved bool) userModel.UserModel {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := userModel.UserModel{
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Seeded " + username,
		PasswordHash: string(hash),
		Role:         role,
		IsApproved:   approved,
		IsActive:     true,
	}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func doJSON(t *testing.T, app *fiber.App, method, target, token string, payload any) (*http.Response, map[string]any) {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
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

func loginToken(t *testing.T, app *fiber.App, username string) string {
	t.Helper()
	res, envelope := doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": username,
		"password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d", res.StatusCode)
	}
	data := envelope["data"].(map[string]any)
	token, _ := data["access_token"].(string)
	if token == "" {
		t.Fatal("empty access token")
	}
	return token
}

func TestRegisterThenLoginRequiresApproval(t *testing.T) {
	app, db := newTestApp(t)

	res, envelope := doJSON(t, app, http.MethodPost, "/api/auth/register", "", fiber.Map{
		"username":  "newbie",
		"email":     "newbie@example.com",
		"full_name": "New Person",
		"password":  "s3cret-pass",
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, body = %v", res.StatusCode, envelope)
	}

	res, _ = doJSON(t, app, http.MethodPost, "/api/auth/login", "", fiber.Map{
		"username": "newbie",
		"password": "s3cret-pass",
	})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("unapproved login status = %d, want 403", res.StatusCode)
	}

	var u userModel.UserModel
	if err := db.First(&u, "username = ?", "newbie").Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if err := db.Model(&u).Update("is_approved", true).Error; err != nil {
		t.Fatalf("approve: %v", err)
	}

	token := loginToken(t, app, "newbie")
	res, envelope = doJSON(t, app, http.MethodGet, "/api/auth/me", token, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d", res.StatusCode)
	}
	data := envelope["data"].(map[string]any)
	if data["username"] != "newbie" {
		t.Fatalf("me username = %v", data["username"])
	}
}

func TestAdminGateOnUserRoutes(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "root", constants.RoleAdmin, true)
	member := seedAccount(t, db, "member", constants.RoleUser, false)

	// the member cannot even list users
	memberToken := func() string {
		if err := db.Model(&member).Update("is_approved", true).Error; err != nil {
			t.Fatalf("approve member: %v", err)
		}
		return loginToken(t, app, "member")
	}()
	res, _ := doJSON(t, app, http.MethodGet, "/api/users/", memberToken, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("member list status = %d, want 403", res.StatusCode)
	}

	adminToken := loginToken(t, app, "root")
	res, _ = doJSON(t, app, http.MethodPost, "/api/users/"+member.ID.String()+"/suspend", adminToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("suspend status = %d", res.StatusCode)
	}

	// suspended member's existing token dies at the middleware
	res, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", memberToken, nil)
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("suspended me status = %d, want 403", res.StatusCode)
	}

	res, _ = doJSON(t, app, http.MethodPost, "/api/users/"+member.ID.String()+"/restore", adminToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("restore status = %d", res.StatusCode)
	}
	res, _ = doJSON(t, app, http.MethodGet, "/api/auth/me", memberToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("restored me status = %d", res.StatusCode)
	}
}

func TestPublicPolicyListingShowsOnlyVisibleLiveRows(t *testing.T) {
	app, db := newTestApp(t)

	category := categoryModel.CategoryModel{CategoryName: "Ops", CategoryCode: "OPS"}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category: %v", err)
	}
	pType := typeModel.PolicyTypeModel{PolicyTypeName: "Policy", PolicyTypeCode: "POL", PolicyTypeIsActive: true}
	if err := db.Create(&pType).Error; err != nil {
		t.Fatalf("seed type: %v", err)
	}

	mk := func(number string, visible bool) policyModel.PolicyModel {
		p := policyModel.PolicyModel{
			PolicyNumber:           number,
			PolicyTitle:            "Policy " + number,
			PolicyCategoryID:       category.CategoryID,
			PolicyTypeID:           pType.PolicyTypeID,
			PolicyOwnerDepartment:  "Ops",
			PolicyDateIssued:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			PolicyStatus:           policyModel.StatusActive,
			PolicyIsVisibleToUsers: visible,
			PolicyVersion:          1,
			PolicyFileURL:          "/uploads/policies/" + number + ".pdf",
			PolicyFileName:         number + ".pdf",
			PolicyCreatedBy:        "root",
		}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed policy: %v", err)
		}
		return p
	}
	mk("OPS-POL-001", true)
	hidden := mk("OPS-POL-002", false)
	deleted := mk("OPS-POL-003", true)
	if err := db.Delete(&policyModel.PolicyModel{}, "policy_id = ?", deleted.PolicyID).Error; err != nil {
		t.Fatalf("delete policy: %v", err)
	}

	res, envelope := doJSON(t, app, http.MethodGet, "/api/public/policies/?include_hidden=true&include_deleted=true", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("public list status = %d", res.StatusCode)
	}
	rows := envelope["data"].([]any)
	if len(rows) != 1 {
		t.Fatalf("public rows = %d, want 1", len(rows))
	}
	first := rows[0].(map[string]any)
	if first["policy_number"] != "OPS-POL-001" {
		t.Fatalf("public row = %v", first["policy_number"])
	}

	// anonymous get of a hidden policy must read as NotFound
	hiddenRes, _ := doJSON(t, app, http.MethodGet, "/api/public/policies/"+hidden.PolicyID.String(), "", nil)
	if hiddenRes.StatusCode != http.StatusNotFound {
		t.Fatalf("hidden get status = %d, want 404", hiddenRes.StatusCode)
	}
}

func TestPolicyMutationRoutesRequireManagerRole(t *testing.T) {
	app, db := newTestApp(t)
	seedAccount(t, db, "reader", constants.RoleUser, true)
	seedAccount(t, db, "editor", constants.RolePolicyManager, true)

	readerToken := loginToken(t, app, "reader")
	editorToken := loginToken(t, app, "editor")

	// readers browse but never reach a mutation handler
	res, _ := doJSON(t, app, http.MethodGet, "/api/policies/", readerToken, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("reader list status = %d", res.StatusCode)
	}
	res, _ = doJSON(t, app, http.MethodPost, "/api/policies/", readerToken, fiber.Map{
		"policy_title": "Nope",
	})
	if res.StatusCode != http.StatusForbidden {
		t.Fatalf("reader create status = %d, want 403", res.StatusCode)
	}

	// managers pass the role middleware; this request dies later on the
	// missing document, not on the gate
	res, _ = doJSON(t, app, http.MethodPost, "/api/policies/", editorToken, fiber.Map{
		"policy_title": "No file attached",
	})
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("editor create status = %d, want 400", res.StatusCode)
	}
}
