package timetableHandler

import (
	timetableService "TrainChecker/internal/api/timetable/service"
	"TrainChecker/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type TimetableHandler struct {
	log              *logrus.Logger
	validator        *validator.Validate
	middleware       middleware.Middleware
	timetableService timetableService.ITimetableService
}

func New(
	log *logrus.Logger,
	validate *validator.Validate,
	middleware middleware.Middleware,
	ts timetableService.ITimetableService,
) *TimetableHandler {
	return &TimetableHandler{
		log:              log,
		validator:        validate,
		middleware:       middleware,
		timetableService: ts,
	}
}

func (h *TimetableHandler) Start(srv fiber.Router) {
	timetable := srv.Group("/timetable")

	timetable.Use(h.middleware.NewRateLimiter)

	timetable.Get("/files", h.ListFiles)
	timetable.Get("/journeys/:location", h.JourneysCallingAt)
}
