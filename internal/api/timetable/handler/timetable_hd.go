package timetableHandler

import (
	"errors"
	"time"

	contextPkg "TrainChecker/pkg/context"
	"TrainChecker/pkg/handlerUtil"
	"TrainChecker/pkg/log"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/net/context"
)

func (h *TimetableHandler) ListFiles(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 30*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	resp, err := h.timetableService.ListFiles(c)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "list_timetable_files")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}

func (h *TimetableHandler) JourneysCallingAt(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 60*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	h.log.WithFields(log.Fields{
		"request_id": requestID,
		"path":       ctx.Path(),
	}).Debug("Processing timetable journeys request")

	location := ctx.Params("location")
	if location == "" {
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("location code is required"), ctx.Path())
	}

	resp, err := h.timetableService.JourneysCallingAt(c, location, ctx.Query("to"))
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "journeys_calling_at")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, resp)
	}
}
