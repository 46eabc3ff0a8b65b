// internals/features/users/user/route/user_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"policyhub_backend/internals/constants"
	userCtl "policyhub_backend/internals/features/users/user/controller"
	authMiddleware "policyhub_backend/internals/middlewares/auth"
)

// UserAdminRoutes: the approval workflow and account lifecycle, admin only.
func UserAdminRoutes(r fiber.Router, db *gorm.DB) {
	ctl := userCtl.NewUserController(db)

	grp := r.Group("/users",
		authMiddleware.OnlyRoles(constants.RoleErrorAdmin("user management"), constants.AdminOnly...),
	)
	grp.Get("/", ctl.List)
	grp.Get("/:id", ctl.GetByID)
	grp.Post("/:id/approve", ctl.Approve)
	grp.Post("/:id/suspend", ctl.Suspend)
	grp.Post("/:id/restore", ctl.Restore)
	grp.Patch("/:id/role", ctl.ChangeRole)
	grp.Delete("/:id", ctl.Delete)
}
