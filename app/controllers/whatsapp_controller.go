package controllers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/PennyFox/internal/pkg/whatsapp"
)

// HandleWhatsAppVerify answers the Cloud API subscription challenge.
func (h *Controller) HandleWhatsAppVerify(c *fiber.Ctx) error {
	token := h.deps.Config.WhatsAppVerifyToken
	if token == "" {
		return errorJSON(c, fiber.StatusServiceUnavailable, "whatsapp_disabled", "whatsapp webhook is not configured")
	}
	if c.Query("hub.mode") != "subscribe" ||
		subtle.ConstantTimeCompare([]byte(c.Query("hub.verify_token")), []byte(token)) != 1 {
		return errorJSON(c, fiber.StatusForbidden, "forbidden", "verification failed")
	}
	return c.SendString(c.Query("hub.challenge"))
}

// HandleWhatsAppWebhook verifies the signature and records the text messages.
// Delivery is acknowledged with 200 even when single messages are rejected,
// otherwise the Cloud API keeps redelivering them.
func (h *Controller) HandleWhatsAppWebhook(c *fiber.Ctx) error {
	secret := h.deps.Config.WhatsAppAppSecret
	if secret == "" {
		return errorJSON(c, fiber.StatusServiceUnavailable, "whatsapp_disabled", "whatsapp webhook is not configured")
	}
	body := c.Body()
	if !whatsapp.VerifySignature(body, c.Get(whatsapp.SignatureHeader), secret) {
		log.Warnf("[WhatsApp] Rejected webhook with bad signature from %s", c.IP())
		return errorJSON(c, fiber.StatusUnauthorized, "invalid_signature", "signature mismatch")
	}

	messages, err := whatsapp.ParseWebhook(body)
	if err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "bad_request", err.Error())
	}

	ctx, cancel := h.callCtx(c)
	defer cancel()

	results := h.deps.WhatsApp.Handle(ctx, messages)
	return c.JSON(fiber.Map{"results": results})
}
