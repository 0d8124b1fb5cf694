package controller

import (
	"io"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/service"
	"memory-beads-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

type ICaptureController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	Create(ctx *fiber.Ctx) error
}

type captureController struct {
	captureService service.ICaptureService
	auth           fiber.Handler
}

func NewCaptureController(captureService service.ICaptureService, auth fiber.Handler) ICaptureController {
	return &captureController{
		captureService: captureService,
		auth:           auth,
	}
}

func (c *captureController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/capture/v1")
	h.Use(c.auth)
	h.Post("analyze", c.Analyze)
	h.Post("", c.Create)
}

// Analyze takes a multipart "image" field and returns the stored handle with
// the suggested title, prompt and colour.
func (c *captureController) Analyze(ctx *fiber.Ctx) error {
	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		return apperr.UserInput("missing image")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	res, err := c.captureService.Analyze(ctx.Context(), content, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success analyze image", res))
}

func (c *captureController) Create(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.CaptureRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.captureService.Create(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Bead captured", res))
}
