// Package server exposes the tracker over a small JSON HTTP API for
// dashboards and other display clients.
package server

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/julianstephens/habitlit/internal/achievements"
	"github.com/julianstephens/habitlit/internal/constants"
	"github.com/julianstephens/habitlit/internal/errors"
	"github.com/julianstephens/habitlit/internal/logger"
	"github.com/julianstephens/habitlit/internal/models"
	"github.com/julianstephens/habitlit/internal/tracker"
	"github.com/julianstephens/habitlit/internal/validation"
)

type Config struct {
	// AllowOrigins is a comma-separated CORS origin list; empty allows any origin.
	AllowOrigins string
}

type Server struct {
	app     *fiber.App
	tracker *tracker.Tracker
}

func New(t *tracker.Tracker, cfg Config) *Server {
	s := &Server{tracker: t}

	s.app = fiber.New(fiber.Config{
		AppName:               constants.AppName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          errorHandler,
	})

	origins := cfg.AllowOrigins
	if origins == "" {
		origins = "*"
	}
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET,POST,DELETE,OPTIONS",
	}))

	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.app.Group("/api")
	api.Get("/habits", s.listHabits)
	api.Post("/habits", s.createHabit)
	api.Get("/habits/:id", s.getHabit)
	api.Delete("/habits/:id", s.deleteHabit)
	api.Post("/habits/:id/toggle", s.toggleHabit)
	api.Get("/stats", s.getStats)
	api.Get("/achievements", s.getAchievements)
	api.Get("/patterns", s.getPatterns)
	api.Get("/export", s.export)
	api.Get("/categories", s.getCategories)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Listen(addr string) error {
	logger.Info("HTTP API listening", "addr", addr)
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	var ve *validation.Error
	switch {
	case stderrors.As(err, &fe):
		code = fe.Code
	case errors.Is(err, errors.ErrHabitNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, errors.ErrDuplicateHabit):
		code = fiber.StatusConflict
	case errors.Is(err, errors.ErrInvalidHabit),
		errors.Is(err, errors.ErrInvalidDateKey),
		errors.Is(err, errors.ErrFutureDay),
		stderrors.As(err, &ve):
		code = fiber.StatusBadRequest
	}
	if code >= fiber.StatusInternalServerError {
		logger.Error("Request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

func (s *Server) listHabits(c *fiber.Ctx) error {
	habits, err := s.tracker.Habits()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"habits": habits})
}

func (s *Server) getHabit(c *fiber.Ctx) error {
	h, err := s.tracker.Habit(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"habit": h})
}

func (s *Server) createHabit(c *fiber.Ctx) error {
	req := &tracker.NewHabit{}
	if err := c.BodyParser(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	h, res, err := s.tracker.AddHabit(*req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"habit": h, "result": res})
}

type toggleRequest struct {
	Day string `json:"day"`
}

func (s *Server) toggleHabit(c *fiber.Ctx) error {
	req := &toggleRequest{}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}
	h, res, err := s.tracker.Toggle(c.Params("id"), req.Day)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"habit": h, "result": res})
}

func (s *Server) deleteHabit(c *fiber.Ctx) error {
	res, err := s.tracker.Delete(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"result": res})
}

func (s *Server) getStats(c *fiber.Ctx) error {
	sum, err := s.tracker.Summary()
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"stats":             sum.Stats,
		"level":             sum.Level,
		"next_level_points": sum.NextLevelPoints,
	})
}

type achievementView struct {
	achievements.Achievement
	Unlocked bool `json:"unlocked"`
}

func (s *Server) getAchievements(c *fiber.Ctx) error {
	sum, err := s.tracker.Summary()
	if err != nil {
		return err
	}
	unlocked := make(map[string]bool, len(sum.Unlocked))
	for _, a := range sum.Unlocked {
		unlocked[a.ID] = true
	}
	views := make([]achievementView, 0, len(sum.Catalog))
	for _, a := range sum.Catalog {
		views = append(views, achievementView{Achievement: a, Unlocked: unlocked[a.ID]})
	}
	return c.JSON(fiber.Map{"achievements": views, "points": sum.Stats.Points, "level": sum.Level})
}

func (s *Server) getPatterns(c *fiber.Ctx) error {
	analysis, err := s.tracker.Analyze()
	if err != nil {
		return err
	}
	return c.JSON(analysis)
}

func (s *Server) export(c *fiber.Ctx) error {
	doc, err := s.tracker.Export()
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", constants.ExportFileName))
	return c.JSON(doc)
}

func (s *Server) getCategories(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"categories": models.Categories})
}
