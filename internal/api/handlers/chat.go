package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"

	"github.com/Aadiprofessional/matrixtwin-assistant/internal/api/middleware"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/assistant"
	"github.com/Aadiprofessional/matrixtwin-assistant/internal/models"
)

// ChatHandler serves the send pipeline over SSE and WebSocket.
type ChatHandler struct {
	svc *assistant.Service
	log *logrus.Logger
}

// NewChatHandler creates a chat handler
func NewChatHandler(svc *assistant.Service, log *logrus.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, log: log}
}

// Send handles POST /api/v1/chat/send. Incremental transcript states are
// streamed to the caller as SSE events; the pipeline itself runs against
// the store regardless of whether the client stays connected.
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req assistant.SendRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Content == "" && req.ImageURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "content or image is required",
		})
	}

	store := h.svc.StoreFor(c.Context(), user.ID)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		// Sends are never cancelled once initiated: a client disconnect
		// only stops the event writes, not the pipeline.
		h.svc.Send(context.Background(), user, store, req, func(u assistant.Update) {
			data, err := json.Marshal(u)
			if err != nil {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		})

		fmt.Fprint(w, "data: [DONE]\n\n")
		w.Flush()
	})

	return nil
}

// SendWS handles the WebSocket variant at /ws/chat: one send request per
// message, answered by a stream of update frames.
func (h *ChatHandler) SendWS(c *websocket.Conn) {
	defer c.Close()

	user, _ := c.Locals("current_user").(*models.User)
	if user == nil {
		c.WriteJSON(fiber.Map{"error": "Not authenticated"})
		return
	}

	for {
		var req assistant.SendRequest
		if err := c.ReadJSON(&req); err != nil {
			return
		}

		store := h.svc.StoreFor(context.Background(), user.ID)
		h.svc.Send(context.Background(), user, store, req, func(u assistant.Update) {
			if err := c.WriteJSON(u); err != nil {
				h.log.WithError(err).Debug("websocket client went away mid-stream")
			}
		})
	}
}
