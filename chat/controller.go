package chat

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-chat/auth"
)

type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type ControllerRoutes struct {
	Index    string
	Message  string
	Messages string
}

type ControllerViews struct {
	Chat     string
	Message  string
	Messages string
}

// SendMessagePayload is the chat form payload
type SendMessagePayload struct {
	NewMessage string `form:"new_message" json:"new_message"`
}

// Controller serves the chat page and the message partials. Every handler
// expects the session guard to have attached an identity.
type Controller struct {
	Logger Logger
	Store  Messages
	Routes *ControllerRoutes
	Views  *ControllerViews
}

func NewController(store Messages, logger Logger) *Controller {
	if logger == nil {
		logger = auth.NewLogger()
	}
	return &Controller{
		Logger: logger,
		Store:  store,
		Routes: &ControllerRoutes{
			Index:    "/",
			Message:  "/message",
			Messages: "/messages",
		},
		Views: &ControllerViews{
			Chat:     "chat",
			Message:  "message",
			Messages: "messages",
		},
	}
}

// RegisterRoutes mounts the controller on app
func RegisterRoutes(app fiber.Router, controller *Controller) {
	app.Get(controller.Routes.Index, auth.RequireIdentity(controller.ChatShow))
	app.Post(controller.Routes.Message, auth.RequireIdentity(controller.PostMessage))
	app.Get(controller.Routes.Messages, auth.RequireIdentity(controller.ListMessages))
}

func (h *Controller) ChatShow(c *fiber.Ctx, identity auth.Identity) error {
	return c.Render(h.Views.Chat, fiber.Map{
		"subject":   identity.Subject(),
		"username":  identity.DisplayName(),
		"anonymous": auth.IsAnonymous(identity),
	})
}

func (h *Controller) PostMessage(c *fiber.Ctx, identity auth.Identity) error {
	payload := new(SendMessagePayload)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Failed to parse form")
	}

	message, err := h.Store.Push(c.UserContext(), &Message{
		Text:       payload.NewMessage,
		AuthorID:   identity.Subject(),
		AuthorName: authorName(identity),
	})
	if err != nil {
		var richErr *errors.Error
		if errors.As(err, &richErr) && richErr.Category == errors.CategoryValidation {
			return c.Status(richErr.Code).SendString(richErr.Message)
		}
		h.Logger.Error("push message", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	return c.Render(h.Views.Message, fiber.Map{
		"message": message,
	})
}

func (h *Controller) ListMessages(c *fiber.Ctx, identity auth.Identity) error {
	messages, err := h.Store.List(c.UserContext())
	if err != nil {
		h.Logger.Error("list messages", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString(err.Error())
	}

	return c.Render(h.Views.Messages, fiber.Map{
		"messages": messages,
	})
}

func authorName(identity auth.Identity) string {
	if auth.IsAnonymous(identity) {
		return "guest"
	}
	return identity.DisplayName()
}
