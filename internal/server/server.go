// Package server exposes the conversion dispatcher and the history log over
// a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/convertkit/unitconv/internal/converter"
	"github.com/convertkit/unitconv/internal/history"
	"github.com/convertkit/unitconv/internal/logging"
	"github.com/convertkit/unitconv/internal/rates"
)

// DefaultListenAddr is the address serve binds when none is configured.
const DefaultListenAddr = ":8080"

// shutdownTimeout bounds graceful shutdown after the run context ends.
const shutdownTimeout = 5 * time.Second

// ErrorResponse is the body of every non-conversion error.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ConvertRequest is the body of POST /convert. Value is a pointer so a
// missing value is rejected rather than read as zero.
type ConvertRequest struct {
	Value    *float64 `json:"value"`
	From     string   `json:"from"`
	To       string   `json:"to"`
	Category string   `json:"category,omitempty"`
}

// ConvertError is the typed failure of a conversion.
type ConvertError struct {
	Kind    converter.Kind `json:"kind"`
	Message string         `json:"message"`
}

// ConvertResponse is the body returned by POST /convert.
type ConvertResponse struct {
	Value    float64       `json:"value"`
	From     string        `json:"from"`
	To       string        `json:"to"`
	Category string        `json:"category,omitempty"`
	Result   *float64      `json:"result,omitempty"`
	Error    *ConvertError `json:"error,omitempty"`
	Display  string        `json:"display"`
}

// Server is the HTTP API.
type Server struct {
	dispatcher *converter.Dispatcher
	history    history.Log
	provider   rates.Provider
	logger     *slog.Logger
	app        *fiber.App
}

// Option configures a Server.
type Option func(*Server)

// WithRateProvider sets the provider served by GET /rates. It should be the
// provider the dispatcher converts currencies with.
func WithRateProvider(p rates.Provider) Option {
	return func(s *Server) {
		s.provider = p
	}
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// New creates a server. Every conversion it handles is appended to log.
func New(d *converter.Dispatcher, log history.Log, opts ...Option) *Server {
	s := &Server{
		dispatcher: d,
		history:    log,
		logger:     logging.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "unitconv",
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	app.Get("/categories", s.handleCategories)
	app.Get("/categories/:name", s.handleCategory)
	app.Post("/convert", s.handleConvert)
	app.Get("/history", s.handleListHistory)
	app.Delete("/history", s.handleClearHistory)
	app.Get("/rates", s.handleRates)

	s.app = app

	return s
}

// App returns the underlying fiber application.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultListenAddr
	}

	s.logger.Info("starting server", slog.String("listen", addr))

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}

	return <-errCh
}

// Shutdown stops the server immediately.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) handleCategories(c *fiber.Ctx) error {
	return c.JSON(converter.Table())
}

func (s *Server) handleCategory(c *fiber.Ctx) error {
	name := c.Params("name")

	category, ok := converter.ParseCategory(name)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "unknown category: " + name})
	}

	units, _ := converter.Units(category)

	return c.JSON(converter.Entry{Category: category, Units: units})
}

func (s *Server) handleConvert(c *fiber.Ctx) error {
	var body ConvertRequest
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		s.logger.Debug("invalid convert body", slog.String("error", err.Error()))
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if msg := validateRequest(body); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
	}

	req := converter.Request{
		Value:    *body.Value,
		From:     body.From,
		To:       body.To,
		Category: converter.Category(body.Category),
	}

	category := converter.Resolve(req)
	res := s.dispatcher.Convert(c.UserContext(), req)

	if err := s.history.Append(c.UserContext(), history.NewRecord(req, category, res)); err != nil {
		s.logger.Error("failed to record conversion", slog.String("error", err.Error()))
	}

	resp := ConvertResponse{
		Value:    req.Value,
		From:     req.From,
		To:       req.To,
		Category: string(category),
		Display:  res.String(),
	}

	if !res.OK() {
		resp.Error = &ConvertError{Kind: res.Err.Kind, Message: res.Err.Message}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}

	v := res.Value
	resp.Result = &v

	return c.JSON(resp)
}

func validateRequest(body ConvertRequest) string {
	switch {
	case body.Value == nil:
		return "missing field: value"
	case body.From == "":
		return "missing field: from"
	case body.To == "":
		return "missing field: to"
	default:
		return ""
	}
}

func (s *Server) handleListHistory(c *fiber.Ctx) error {
	records, err := s.history.List(c.UserContext())
	if err != nil {
		s.logger.Error("failed to list history", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list history"})
	}

	return c.JSON(history.NewDocument(records))
}

func (s *Server) handleClearHistory(c *fiber.Ctx) error {
	if err := s.history.Clear(c.UserContext()); err != nil {
		s.logger.Error("failed to clear history", slog.String("error", err.Error()))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to clear history"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleRates(c *fiber.Ctx) error {
	if s.provider == nil {
		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "no rate provider configured"})
	}

	snap, err := s.provider.Snapshot(c.UserContext())
	if err != nil {
		s.logger.Warn("rates unavailable", slog.String("error", err.Error()))

		msg := "rates unavailable"
		if !errors.Is(err, rates.ErrRateUnavailable) {
			msg = "rate provider failed"
		}

		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: msg})
	}

	return c.JSON(snap)
}
