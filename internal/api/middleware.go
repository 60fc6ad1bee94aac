package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Savantrexs/MedConfirm/internal/metrics"
)

func (s *Server) requestMetrics() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		metrics.Default().RecordRequest(err == nil && c.Response().StatusCode() < 400)
		return err
	}
}
