package handlers

import (
	"errors"
	"time"

	"codeit-chatbot/internal/dto"
	"codeit-chatbot/internal/models"
	"codeit-chatbot/internal/service"
	"codeit-chatbot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ChatHandler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

func NewChatHandler(chatService *service.ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		logger:      logger,
	}
}

// Chat godoc
// @Summary Send a message to the chatbot
// @Description Returns the reply and the full session history. A new session is started when session_id is omitted.
// @Tags chat
// @Accept json
// @Produce json
// @Param request body dto.ChatRequest true "Chat message"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /chat [post]
func (h *ChatHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Detail: "Invalid request body",
		})
	}

	result, err := h.chatService.Chat(c.UserContext(), req.Session(), req.Message)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
				Detail: "Message cannot be empty.",
			})
		}
		h.logger.Error("Chatbot response generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Detail: "Failed to generate response: " + err.Error(),
		})
	}

	c.Locals(middleware.SessionIDLocal, result.SessionID)

	return c.JSON(dto.ChatResponse{
		Reply:     result.Reply,
		SessionID: result.SessionID,
		History:   toTurnResponses(result.History),
	})
}

func toTurnResponses(turns []models.Turn) []dto.ChatTurn {
	out := make([]dto.ChatTurn, len(turns))
	for i, turn := range turns {
		out[i] = dto.ChatTurn{
			Role:      string(turn.Role),
			Content:   turn.Content,
			Timestamp: turn.Timestamp.Format(time.RFC3339Nano),
		}
	}
	return out
}
