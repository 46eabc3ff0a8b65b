// internals/features/policies/policies/route/policy_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"policyhub_backend/internals/constants"
	policyCtl "policyhub_backend/internals/features/policies/policies/controller"
	policyService "policyhub_backend/internals/features/policies/policies/service"
	"policyhub_backend/internals/helpers/storage"
	authMiddleware "policyhub_backend/internals/middlewares/auth"
)

// PolicyRoutes: authenticated endpoints. Reads are open to every role (the
// service filters visibility per role); mutations sit behind the manager
// role middleware on top of the service-level gate.
func PolicyRoutes(r fiber.Router, db *gorm.DB, blob storage.BlobService) {
	ctl := policyCtl.NewPolicyController(policyService.NewPolicyService(db, blob), blob)

	managerOnly := authMiddleware.OnlyRoles(constants.RoleErrorManager("policy management"), constants.ManagerAndAbove...)

	grp := r.Group("/policies")
	grp.Get("/", ctl.List)
	grp.Get("/:id", ctl.GetByID)
	grp.Get("/:id/download", ctl.Download)
	grp.Post("/", managerOnly, ctl.Create)
	grp.Patch("/:id", managerOnly, ctl.Update)
	grp.Put("/:id/document", managerOnly, ctl.ReplaceDocument)
	grp.Patch("/:id/visibility", managerOnly, ctl.ToggleVisibility)
	grp.Delete("/:id", managerOnly, ctl.Delete)
	grp.Post("/:id/restore", managerOnly, ctl.Restore)
}

// PolicyPublicRoutes: anonymous read access to live, user-visible policies.
func PolicyPublicRoutes(r fiber.Router, db *gorm.DB, blob storage.BlobService) {
	ctl := policyCtl.NewPolicyController(policyService.NewPolicyService(db, blob), blob)

	grp := r.Group("/policies")
	grp.Get("/", ctl.PublicList)
	grp.Get("/:id", ctl.PublicGetByID)
	grp.Get("/:id/download", ctl.PublicDownload)
}
