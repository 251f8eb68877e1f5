package api

import (
	"crypto/subtle"
	"time"

	apperrors "github.com/gmsas95/dosekeeper-cli/internal/errors"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/gmsas95/dosekeeper-cli/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"version":   Version,
		"timestamp": time.Now().Unix(),
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req struct {
		Password string `json:"password"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	if want := s.config.Security.AdminPassword; want != "" {
		if subtle.ConstantTimeCompare([]byte(req.Password), []byte(want)) != 1 {
			return c.Status(401).JSON(fiber.Map{"error": "invalid password"})
		}
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "default",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(7 * 24 * time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte(s.config.Security.JWTSecret))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "failed to generate token"})
	}

	return c.JSON(fiber.Map{"token": tokenString})
}

// writeError maps an error to a status and a user-facing message
func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := 500
	switch {
	case apperrors.IsValidation(err):
		status = 400
	case apperrors.GetCode(err) == apperrors.ErrBadRequest.Code:
		status = 400
	case apperrors.GetCode(err) == apperrors.ErrNotFound.Code:
		status = 404
	default:
		s.logger.Error("Request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}
	return c.Status(status).JSON(fiber.Map{
		"error": service.UserMessage(err),
		"code":  apperrors.GetCode(err),
	})
}

func notFound(c *fiber.Ctx) error {
	return c.Status(404).JSON(fiber.Map{"error": "medicine not found"})
}

func (s *Server) view(m medicine.Medicine) medicineView {
	return medicineView{Medicine: m, LowStock: m.LowStock(s.svc.LowStockThreshold())}
}

func saved(r service.SaveResult) saveResponse {
	resp := saveResponse{Saved: r.Saved}
	if r.Saved {
		m := r.Medicine
		resp.Medicine = &m
	}
	if r.AlarmErr != nil {
		resp.Warning = service.UserMessage(r.AlarmErr)
	}
	return resp
}

func (s *Server) handleListMedicines(c *fiber.Ctx) error {
	var f service.Filter
	if raw := c.Query("category"); raw != "" {
		category, err := medicine.ParseCategory(raw)
		if err != nil {
			return s.writeError(c, err)
		}
		f.Category = category
	}
	f.Search = c.Query("search")

	meds, err := s.svc.List(c.UserContext(), f)
	if err != nil {
		return s.writeError(c, err)
	}

	views := make([]medicineView, 0, len(meds))
	for _, m := range meds {
		views = append(views, s.view(m))
	}
	return c.JSON(views)
}

func (s *Server) handleGetMedicine(c *fiber.Ctx) error {
	m, found, err := s.svc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(s.view(m))
}

func (s *Server) handleCreateMedicine(c *fiber.Ctx) error {
	var m medicine.Medicine
	if err := c.BodyParser(&m); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	m.ID = ""

	result, err := s.svc.Save(c.UserContext(), m)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(201).JSON(saved(result))
}

func (s *Server) handleUpdateMedicine(c *fiber.Ctx) error {
	var m medicine.Medicine
	if err := c.BodyParser(&m); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	m.ID = c.Params("id")

	result, err := s.svc.Edit(c.UserContext(), m)
	if err != nil {
		return s.writeError(c, err)
	}
	if !result.Saved {
		return notFound(c)
	}
	return c.JSON(saved(result))
}

func (s *Server) handleDeleteMedicine(c *fiber.Ctx) error {
	result, err := s.svc.Delete(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	if !result.Saved {
		return notFound(c)
	}
	return c.JSON(saved(result))
}

func (s *Server) handleToggleMedicine(c *fiber.Ctx) error {
	result, err := s.svc.Toggle(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	if !result.Saved {
		return notFound(c)
	}
	return c.JSON(saved(result))
}

func (s *Server) handleRecordIntake(c *fiber.Ctx) error {
	var req intakeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}
	taken := true
	if req.Taken != nil {
		taken = *req.Taken
	}

	m, found, err := s.svc.MarkTaken(c.UserContext(), c.Params("id"), req.Time, taken)
	if err != nil {
		return s.writeError(c, err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(s.view(m))
}

func (s *Server) handleSetPills(c *fiber.Ctx) error {
	var req pillsRequest
	if err := c.BodyParser(&req); err != nil || req.Remaining == nil {
		return c.Status(400).JSON(fiber.Map{"error": "remaining is required"})
	}

	m, found, err := s.svc.SetPills(c.UserContext(), c.Params("id"), *req.Remaining)
	if err != nil {
		return s.writeError(c, err)
	}
	if !found {
		return notFound(c)
	}
	return c.JSON(s.view(m))
}

func (s *Server) handleToday(c *fiber.Ctx) error {
	doses, err := s.svc.Today(c.UserContext())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(doses)
}

func (s *Server) handleStats(c *fiber.Ctx) error {
	days := c.QueryInt("days", s.config.Stats.DefaultDays)

	report, err := s.svc.Stats(c.UserContext(), days)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(report)
}

func (s *Server) handleGetTheme(c *fiber.Ctx) error {
	mode, err := s.svc.Theme(c.UserContext())
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(themeBody{Mode: string(mode), Dark: mode.IsDark(time.Now())})
}

func (s *Server) handleSetTheme(c *fiber.Ctx) error {
	var req themeBody
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid request"})
	}

	mode, err := store.ParseThemeMode(req.Mode)
	if err != nil {
		return s.writeError(c, err)
	}
	if err := s.svc.SetTheme(c.UserContext(), mode); err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(themeBody{Mode: string(mode), Dark: mode.IsDark(time.Now())})
}

// handleWebSocket streams fired alarms until the client goes away
func (s *Server) handleWebSocket(c *websocket.Conn) {
	defer c.Close()

	notifications, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			if err := c.WriteJSON(fiber.Map{"type": "alarm", "notification": n}); err != nil {
				s.logger.Warn("WebSocket write error", zap.Error(err))
				return
			}
		}
	}
}
