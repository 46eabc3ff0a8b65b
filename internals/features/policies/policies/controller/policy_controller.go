// internals/features/policies/policies/controller/policy_controller.go
package controller

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	policyDTO "policyhub_backend/internals/features/policies/policies/dto"
	policyService "policyhub_backend/internals/features/policies/policies/service"
	helper "policyhub_backend/internals/helpers"
	helperAuth "policyhub_backend/internals/helpers/auth"
	"policyhub_backend/internals/helpers/storage"
)

type PolicyController struct {
	Service *policyService.PolicyService
	Blob    storage.BlobService
}

func NewPolicyController(svc *policyService.PolicyService, blob storage.BlobService) *PolicyController {
	return &PolicyController{Service: svc, Blob: blob}
}

// CREATE (multipart: metadata fields + "file")
// POST /api/policies
func (ctl *PolicyController) Create(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}

	var req policyDTO.CreatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}

	fh, err := storage.GetDocumentFile(c)
	if err != nil {
		return err
	}

	m, err := ctl.Service.Create(c.UserContext(), actor, req, fh)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Policy created", policyDTO.FromPolicyModel(m))
}

// LIST
// GET /api/policies?status=&category_id=&policy_type_id=&q=&include_hidden=&include_deleted=
func (ctl *PolicyController) List(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}

	var q policyDTO.ListPolicyQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}

	p := helper.ResolvePaging(c, 20, 200)
	rows, total, err := ctl.Service.List(c.UserContext(), actor, q, p.Limit, p.Offset)
	if err != nil {
		return err
	}

	return helper.JsonList(c, "Policies found",
		policyDTO.FromPolicyModels(rows),
		helper.BuildPaginationFromOffset(total, p.Offset, p.Limit),
	)
}

// GET /api/policies/:id — includes full version history
func (ctl *PolicyController) GetByID(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, history, err := ctl.Service.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Policy found", policyDTO.FromPolicyDetail(m, history))
}

// GET /api/policies/:id/download — same visibility rules as GetByID
func (ctl *PolicyController) Download(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, _, err := ctl.Service.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return storage.ServeDocument(c, ctl.Blob, m.PolicyFileURL, m.PolicyFileName)
}

// PATCH /api/policies/:id — metadata only, never touches version/file
func (ctl *PolicyController) Update(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req policyDTO.UpdatePolicyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}

	m, err := ctl.Service.UpdateMetadata(c.UserContext(), actor, id, req)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Policy updated", policyDTO.FromPolicyModel(m))
}

// PUT /api/policies/:id/document (multipart: "file" + change_summary + expected_version)
func (ctl *PolicyController) ReplaceDocument(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req policyDTO.ReplaceDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}

	fh, err := storage.GetDocumentFile(c)
	if err != nil {
		return err
	}

	m, err := ctl.Service.ReplaceDocument(c.UserContext(), actor, id, req, fh)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Document replaced", policyDTO.FromPolicyModel(m))
}

// PATCH /api/policies/:id/visibility?is_visible=true|false
func (ctl *PolicyController) ToggleVisibility(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	raw := strings.TrimSpace(c.Query("is_visible"))
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "is_visible query parameter is required")
	}
	visible := strings.EqualFold(raw, "true")

	m, err := ctl.Service.ToggleVisibility(c.UserContext(), actor, id, visible)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Visibility updated", policyDTO.FromPolicyModel(m))
}

// DELETE /api/policies/:id
func (ctl *PolicyController) Delete(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, err := ctl.Service.SoftDelete(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return helper.JsonDeleted(c, "Policy deleted", policyDTO.FromPolicyModel(m))
}

// POST /api/policies/:id/restore
func (ctl *PolicyController) Restore(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, err := ctl.Service.Restore(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return helper.JsonUpdated(c, "Policy restored", policyDTO.FromPolicyModel(m))
}

func parseID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(c.Params("id")))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return id, nil
}
