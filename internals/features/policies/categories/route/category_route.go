// internals/features/policies/categories/route/category_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	categoryCtl "policyhub_backend/internals/features/policies/categories/controller"
)

// CategoryRoutes: all endpoints require authentication; per-operation role
// rules are enforced by the access gate inside the controller.
func CategoryRoutes(r fiber.Router, db *gorm.DB) {
	ctl := categoryCtl.NewCategoryController(db)

	grp := r.Group("/categories")
	grp.Get("/", ctl.List)
	grp.Get("/:id", ctl.GetByID)
	grp.Post("/", ctl.Create)
	grp.Patch("/:id", ctl.Update)
	grp.Delete("/:id", ctl.Delete)
	grp.Post("/:id/restore", ctl.Restore)
}
