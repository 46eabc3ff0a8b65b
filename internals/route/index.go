// internals/route/index.go
package route

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	categoryRoute "policyhub_backend/internals/features/policies/categories/route"
	policyRoute "policyhub_backend/internals/features/policies/policies/route"
	typeRoute "policyhub_backend/internals/features/policies/policy_types/route"
	authRoute "policyhub_backend/internals/features/users/auth/route"
	userRoute "policyhub_backend/internals/features/users/user/route"
	"policyhub_backend/internals/helpers/storage"
	authMiddleware "policyhub_backend/internals/middlewares/auth"
)

// SetupRoutes wires every feature under three surfaces:
//
//	/api/public — no token; live + user-visible policies and auth entry points
//	/api        — bearer token required; role rules applied per operation
//	/api/users  — bearer token + admin role
func SetupRoutes(app *fiber.App, db *gorm.DB, blob storage.BlobService) {
	// ===================== PUBLIC =====================
	log.Println("[INFO] Setting up PUBLIC group...")
	public := app.Group("/api/public")
	policyRoute.PolicyPublicRoutes(public, db, blob)

	authRoute.AuthPublicRoutes(app.Group("/api"), db)

	// ===================== PRIVATE =====================
	log.Println("[INFO] Setting up PRIVATE group...")
	private := app.Group("/api", authMiddleware.AuthMiddleware(db))

	authRoute.AuthPrivateRoutes(private, db)
	categoryRoute.CategoryRoutes(private, db)
	typeRoute.PolicyTypeRoutes(private, db)
	policyRoute.PolicyRoutes(private, db, blob)

	// ===================== ADMIN =====================
	log.Println("[INFO] Setting up ADMIN group...")
	userRoute.UserAdminRoutes(private, db)
}
