// internals/features/policies/policies/controller/public_policy_controller.go
package controller

import (
	"github.com/gofiber/fiber/v2"

	policyDTO "policyhub_backend/internals/features/policies/policies/dto"
	helper "policyhub_backend/internals/helpers"
	helperAuth "policyhub_backend/internals/helpers/auth"
	"policyhub_backend/internals/helpers/storage"
)

/* =======================================================
   PUBLIC (unauthenticated) policy endpoints.
   Anonymous callers only ever see live, user-visible rows.
   ======================================================= */

// GET /api/public/policies
func (ctl *PolicyController) PublicList(c *fiber.Ctx) error {
	var q policyDTO.ListPolicyQuery
	if err := c.QueryParser(&q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	// anonymous callers cannot opt into privileged views
	q.IncludeHidden = nil
	q.IncludeDeleted = nil

	p := helper.ResolvePaging(c, 20, 100)
	rows, total, err := ctl.Service.List(c.UserContext(), helperAuth.AnonymousActor, q, p.Limit, p.Offset)
	if err != nil {
		return err
	}

	return helper.JsonList(c, "Policies found",
		policyDTO.FromPolicyModels(rows),
		helper.BuildPaginationFromOffset(total, p.Offset, p.Limit),
	)
}

// GET /api/public/policies/:id
func (ctl *PolicyController) PublicGetByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, history, err := ctl.Service.Get(c.UserContext(), helperAuth.AnonymousActor, id)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Policy found", policyDTO.FromPolicyDetail(m, history))
}

// GET /api/public/policies/:id/download
func (ctl *PolicyController) PublicDownload(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	m, _, err := ctl.Service.Get(c.UserContext(), helperAuth.AnonymousActor, id)
	if err != nil {
		return err
	}
	return storage.ServeDocument(c, ctl.Blob, m.PolicyFileURL, m.PolicyFileName)
}
