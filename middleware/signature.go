package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/Devhypertech/aigroupgepanda/models"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader carries the hex HMAC-SHA256 of the raw webhook body.
const SignatureHeader = "X-Signature"

// Sign returns the signature the provider sends for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature rejects requests whose X-Signature does not match the
// body. When enabled is false every request passes.
func VerifySignature(secret string, enabled bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !enabled {
			return c.Next()
		}
		got, err := hex.DecodeString(c.Get(SignatureHeader))
		if err != nil || len(got) == 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid webhook signature", ""))
		}
		want, _ := hex.DecodeString(Sign(secret, c.Body()))
		if !hmac.Equal(got, want) {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Invalid webhook signature", ""))
		}
		return c.Next()
	}
}
