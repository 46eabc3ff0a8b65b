// internals/features/users/auth/controller/auth_controller.go
package controller

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	authDTO "policyhub_backend/internals/features/users/auth/dto"
	authService "policyhub_backend/internals/features/users/auth/service"
	userDTO "policyhub_backend/internals/features/users/user/dto"
	userModel "policyhub_backend/internals/features/users/user/model"
	helper "policyhub_backend/internals/helpers"
	helperAuth "policyhub_backend/internals/helpers/auth"
)

type AuthController struct {
	Service *authService.AuthService
}

func NewAuthController(svc *authService.AuthService) *AuthController {
	return &AuthController{Service: svc}
}

// POST /api/auth/register — new accounts wait for admin approval
func (ctl *AuthController) Register(c *fiber.Ctx) error {
	var req authDTO.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}

	u, err := ctl.Service.Register(c.UserContext(), req)
	if err != nil {
		return err
	}
	return helper.JsonCreated(c, "Registration received, awaiting approval", userDTO.FromUserModel(u))
}

// POST /api/auth/login
func (ctl *AuthController) Login(c *fiber.Ctx) error {
	var req authDTO.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid payload")
	}

	res, err := ctl.Service.Login(c.UserContext(), req)
	if err != nil {
		return err
	}
	return helper.JsonOK(c, "Login successful", res)
}

// GET /api/auth/me
func (ctl *AuthController) Me(c *fiber.Ctx) error {
	actor, err := helperAuth.GetActor(c)
	if err != nil {
		return err
	}

	var u userModel.UserModel
	if err := ctl.Service.DB.WithContext(c.UserContext()).First(&u, "id = ?", actor.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load user")
	}
	return helper.JsonOK(c, "Profile found", userDTO.FromUserModel(u))
}
