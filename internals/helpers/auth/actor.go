// internals/helpers/auth/actor.go
package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Actor is the authenticated principal of a request. Every mutation takes the
// actor explicitly; nothing in the engine reads ambient session state.
type Actor struct {
	ID       uuid.UUID
	Username string
	Role     string
}

// AnonymousActor is used on public (unauthenticated) endpoints. Its empty role
// gets the most restrictive treatment from the access gate.
var AnonymousActor = Actor{}

// GetActor pulls the authenticated principal out of fiber locals, as stored by
// the JWT middleware.
func GetActor(c *fiber.Ctx) (Actor, error) {
	idStr, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("userRole").(string)
	username, _ := c.Locals("user_name").(string)

	if strings.TrimSpace(idStr) == "" || strings.TrimSpace(role) == "" {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - missing identity")
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return Actor{}, fiber.NewError(fiber.StatusUnauthorized, "Unauthorized - invalid user id")
	}
	return Actor{ID: id, Username: username, Role: role}, nil
}
