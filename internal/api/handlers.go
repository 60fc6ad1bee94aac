package api

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	apperrors "github.com/Savantrexs/MedConfirm/internal/errors"
	"github.com/Savantrexs/MedConfirm/internal/metrics"
	"github.com/Savantrexs/MedConfirm/internal/store"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleMetrics(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/plain; charset=utf-8")
	return c.SendString(metrics.Default().Prometheus())
}

func (s *Server) handleMetricsJSON(c *fiber.Ctx) error {
	return c.JSON(metrics.Default().Snapshot())
}

// Medications

func (s *Server) handleListMedications(c *fiber.Ctx) error {
	activeOnly := c.QueryBool("active", false)

	meds, err := s.service.ListMedications(activeOnly)
	if err != nil {
		s.logger.Error("Failed to list medications", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to list medications"})
	}
	return c.JSON(fiber.Map{"count": len(meds), "medications": meds})
}

func (s *Server) handleCreateMedication(c *fiber.Ctx) error {
	var req medicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	med := req.toMedication()
	if err := s.service.AddMedication(med); err != nil {
		return s.errorResponse(c, err, "failed to create medication")
	}
	return c.Status(201).JSON(med)
}

func (s *Server) handleGetMedication(c *fiber.Ctx) error {
	med, err := s.service.GetMedication(c.Params("id"))
	if err != nil {
		return s.errorResponse(c, err, "failed to load medication")
	}
	return c.JSON(med)
}

func (s *Server) handleUpdateMedication(c *fiber.Ctx) error {
	var req medicationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	med := req.toMedication()
	med.ID = c.Params("id")
	if err := s.service.UpdateMedication(med); err != nil {
		return s.errorResponse(c, err, "failed to update medication")
	}
	return c.JSON(med)
}

func (s *Server) handleDeleteMedication(c *fiber.Ctx) error {
	if err := s.service.DeleteMedication(c.Params("id")); err != nil {
		return s.errorResponse(c, err, "failed to delete medication")
	}
	return c.JSON(fiber.Map{"success": true})
}

// Intakes

func (s *Server) handleConfirmIntake(c *fiber.Ctx) error {
	var req intakeRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
		}
	}

	log, err := s.service.ConfirmIntake(c.Params("id"), req.Note, req.Force)
	if err != nil {
		return s.errorResponse(c, err, "failed to confirm intake")
	}
	return c.Status(201).JSON(log)
}

func (s *Server) handleDeleteIntake(c *fiber.Ctx) error {
	if err := s.service.DeleteIntakeLog(c.Params("id")); err != nil {
		s.logger.Error("Failed to delete intake log", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to delete intake log"})
	}
	return c.JSON(fiber.Map{"success": true})
}

// Views

func (s *Server) handleToday(c *fiber.Ctx) error {
	statuses, err := s.service.Today()
	if err != nil {
		s.logger.Error("Failed to compute today view", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to compute today view"})
	}
	return c.JSON(fiber.Map{"count": len(statuses), "medications": statuses})
}

func (s *Server) handleHistory(c *fiber.Ctx) error {
	days, err := s.service.History()
	if err != nil {
		s.logger.Error("Failed to load history", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to load history"})
	}
	return c.JSON(fiber.Map{"count": len(days), "days": days})
}

func (s *Server) handleExportCSV(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/csv; charset=utf-8")
	c.Set("Content-Disposition", `attachment; filename="medconfirm-history.csv"`)
	if err := s.service.ExportCSV(c.Response().BodyWriter()); err != nil {
		s.logger.Error("Failed to export history", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to export history"})
	}
	return nil
}

// Settings

func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	settings, err := s.service.Settings()
	if err != nil {
		s.logger.Error("Failed to load settings", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to load settings"})
	}
	return c.JSON(settings)
}

func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	var req settingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if req.RemindersEnabled != nil {
		if err := s.service.SetRemindersEnabled(*req.RemindersEnabled); err != nil {
			s.logger.Error("Failed to update settings", zap.Error(err))
			return c.Status(500).JSON(fiber.Map{"error": "failed to update settings"})
		}
	}

	settings, err := s.service.Settings()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to load settings"})
	}
	return c.JSON(settings)
}

func (s *Server) handleUnlockSlot(c *fiber.Ctx) error {
	total, err := s.service.UnlockSlot()
	if err != nil {
		s.logger.Error("Failed to unlock slot", zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"error": "failed to unlock slot"})
	}
	return c.JSON(fiber.Map{"unlocked_slots": total})
}

// errorResponse maps service errors onto HTTP statuses by their code
func (s *Server) errorResponse(c *fiber.Ctx, err error, fallback string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr {
		case apperrors.ErrMedicationNotFound, apperrors.ErrLogNotFound, apperrors.ErrNotFound:
			return c.Status(404).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
		case apperrors.ErrRecentlyTaken:
			return c.Status(409).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
		case apperrors.ErrSlotLimitReached:
			return c.Status(403).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
		}
		if appErr.Code == "MED_002" {
			return c.Status(400).JSON(fiber.Map{"error": appErr.Message, "code": appErr.Code})
		}
	}

	s.logger.Error(fallback, zap.Error(err))
	return c.Status(500).JSON(fiber.Map{"error": fallback})
}

func (r *medicationRequest) toMedication() *store.Medication {
	med := &store.Medication{
		Name:         r.Name,
		DosageText:   r.DosageText,
		Instructions: r.Instructions,
		TimesPerDay:  r.TimesPerDay,
		DaysOfWeek:   r.DaysOfWeek,
		ReminderMode: r.ReminderMode,
		IsActive:     true,
	}
	if r.IsActive != nil {
		med.IsActive = *r.IsActive
	}
	return med
}
