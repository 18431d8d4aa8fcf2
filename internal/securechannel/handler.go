package securechannel

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chain-pair/chain_pair/internal/channel"
)

// Handler exposes pairing control endpoints.
type Handler struct {
	service  *Service
	channels *channel.Service
}

// NewHandler builds a pairing control handler.
func NewHandler(service *Service, channels *channel.Service) *Handler {
	return &Handler{service: service, channels: channels}
}

type statusResponse struct {
	State     string `json:"state"`
	ChannelID string `json:"channel_id,omitempty"`
	Paired    bool   `json:"paired"`
}

// Status reports the handshake state and whether a phone is remembered.
func (h *Handler) Status(c *fiber.Ctx) error {
	identity, err := h.channels.Snapshot(c.UserContext())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(statusResponse{
		State:     h.service.State().String(),
		ChannelID: identity.ChannelID,
		Paired:    identity.HasPairedPhone(),
	})
}

// Resend nudges the remembered phone again. The handshake has no timeout,
// so this is the only recovery path when a ping was lost.
func (h *Handler) Resend(c *fiber.Ctx) error {
	if err := h.service.ResendPing(c.UserContext()); err != nil {
		if errors.Is(err, ErrNotPaired) {
			return fiber.NewError(http.StatusNotFound, err.Error())
		}
		return fiber.NewError(http.StatusConflict, err.Error())
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"status": "ping sent"})
}

// Logout records the logout instant used to gate future proactive pings.
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.service.RecordLogout(c.UserContext()); err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.SendStatus(http.StatusNoContent)
}
