package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/stateless-auth/internal/api/dto"
	"github.com/spec-kit/stateless-auth/internal/realtime"
	apperrors "github.com/spec-kit/stateless-auth/pkg/util"
)

// RealtimeHandler bridges token-gated requests to the pub/sub channel.
type RealtimeHandler struct {
	publisher *realtime.Publisher
}

// NewRealtimeHandler constructs handler.
func NewRealtimeHandler(publisher *realtime.Publisher) *RealtimeHandler {
	return &RealtimeHandler{publisher: publisher}
}

// Push handles POST /auth/pusher. The route is guarded by the token
// middleware, so only authenticated callers reach it.
func (h *RealtimeHandler) Push(c *fiber.Ctx) error {
	var req dto.PusherRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.publisher.Publish(c.UserContext(), realtime.Message{
		UID:  req.UID,
		Text: req.Text,
	}); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "message sent to socket server",
	})
}
