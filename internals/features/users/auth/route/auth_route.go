// internals/features/users/auth/route/auth_route.go
package route

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authCtl "policyhub_backend/internals/features/users/auth/controller"
	authService "policyhub_backend/internals/features/users/auth/service"
	"policyhub_backend/internals/middlewares"
)

// AuthPublicRoutes: registration and login, behind their own rate limiters.
func AuthPublicRoutes(r fiber.Router, db *gorm.DB) {
	ctl := authCtl.NewAuthController(authService.NewAuthService(db))

	grp := r.Group("/auth")
	grp.Post("/register", middlewares.RegisterRateLimiter(), ctl.Register)
	grp.Post("/login", middlewares.LoginRateLimiter(), ctl.Login)
}

// AuthPrivateRoutes: endpoints requiring a valid bearer token.
func AuthPrivateRoutes(r fiber.Router, db *gorm.DB) {
	ctl := authCtl.NewAuthController(authService.NewAuthService(db))

	grp := r.Group("/auth")
	grp.Get("/me", ctl.Me)
}
