// internals/features/policies/policy_types/route/policy_type_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	typeCtl "policyhub_backend/internals/features/policies/policy_types/controller"
)

func PolicyTypeRoutes(r fiber.Router, db *gorm.DB) {
	ctl := typeCtl.NewPolicyTypeController(db)

	grp := r.Group("/policy-types")
	grp.Get("/", ctl.List)
	grp.Get("/:id", ctl.GetByID)
	grp.Post("/", ctl.Create)
	grp.Patch("/:id", ctl.Update)
	grp.Delete("/:id", ctl.Delete)
	grp.Post("/:id/restore", ctl.Restore)
}
