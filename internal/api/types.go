package api

import (
	"time"

	"github.com/gmsas95/dosekeeper-cli/internal/config"
	"github.com/gmsas95/dosekeeper-cli/internal/medicine"
	"github.com/gmsas95/dosekeeper-cli/internal/metrics"
	"github.com/gmsas95/dosekeeper-cli/internal/notify"
	"github.com/gmsas95/dosekeeper-cli/internal/service"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Version is reported by the health endpoint
var Version = "dev"

type Server struct {
	app     *fiber.App
	config  *config.Config
	svc     *service.Service
	hub     *notify.Hub
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates the API server. hub may be nil, in which case /ws streams nothing.
func New(cfg *config.Config, svc *service.Service, hub *notify.Hub, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hub == nil {
		hub = notify.NewHub()
	}

	app := fiber.New(fiber.Config{
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           120 * time.Second,
		DisableStartupMessage: true,
		// Params and bodies outlive the handler in alarm triggers
		Immutable: true,
	})

	s := &Server{
		app:     app,
		config:  cfg,
		svc:     svc,
		hub:     hub,
		metrics: metrics.Default(),
		logger:  logger,
	}

	if cfg.Security.AdminPassword == "" {
		logger.Warn("No admin password configured; any password is accepted at /api/auth/login")
	}

	s.setupRoutes()
	return s
}

// App exposes the fiber app, used by tests
func (s *Server) App() *fiber.App {
	return s.app
}

type medicineView struct {
	medicine.Medicine
	LowStock bool `json:"lowStock"`
}

type saveResponse struct {
	Medicine *medicine.Medicine `json:"medicine,omitempty"`
	Saved    bool               `json:"saved"`
	Warning  string             `json:"warning,omitempty"`
}

type intakeRequest struct {
	Time  string `json:"time"`
	Taken *bool  `json:"taken"`
}

type pillsRequest struct {
	Remaining *int `json:"remaining"`
}

type themeBody struct {
	Mode string `json:"mode"`
	Dark bool   `json:"dark"`
}
