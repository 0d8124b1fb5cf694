package controller

import (
	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IRecordingController interface {
	RegisterRoutes(r fiber.Router)
	Start(ctx *fiber.Ctx) error
	Chunk(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
}

type recordingController struct {
	recordingService service.IRecordingService
	auth             fiber.Handler
}

func NewRecordingController(recordingService service.IRecordingService, auth fiber.Handler) IRecordingController {
	return &recordingController{
		recordingService: recordingService,
		auth:             auth,
	}
}

func (c *recordingController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/recording/v1")
	h.Use(c.auth)
	h.Post("start", c.Start)
	h.Post("chunk", c.Chunk)
	h.Post("stop", c.Stop)
	h.Delete("", c.Cancel)
}

func (c *recordingController) Start(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.StartRecordingRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.recordingService.Start(userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Recording started", res))
}

// Chunk appends the raw request body to the open recording.
func (c *recordingController) Chunk(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	if err := c.recordingService.Write(userId, ctx.Body()); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Chunk stored", fiber.Map{"size": len(ctx.Body())}))
}

func (c *recordingController) Stop(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.StopRecordingRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return err
		}
	}

	res, err := c.recordingService.Stop(userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Recording stored", res))
}

func (c *recordingController) Cancel(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	aborted := c.recordingService.Cancel(userId)
	return ctx.JSON(serverutils.SuccessResponse("Recording cancelled", fiber.Map{"aborted": aborted}))
}
