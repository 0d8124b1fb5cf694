package controller

import (
	"bytes"
	"io"

	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/service"
	"memory-beads-be/pkg/apperr"

	"github.com/gofiber/fiber/v2"
)

type IImportController interface {
	RegisterRoutes(r fiber.Router)
	Import(ctx *fiber.Ctx) error
	ChooseOwner(ctx *fiber.Ctx) error
}

type importController struct {
	importService service.IImportService
	auth          fiber.Handler
}

func NewImportController(importService service.IImportService, auth fiber.Handler) IImportController {
	return &importController{
		importService: importService,
		auth:          auth,
	}
}

func (c *importController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/import/v1")
	h.Use(c.auth)
	h.Post("", c.Import)
	h.Post("owner", c.ChooseOwner)
}

// Import accepts the export either as a multipart "file" field or as the raw
// JSON body.
func (c *importController) Import(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var body io.Reader
	if fileHeader, err := ctx.FormFile("file"); err == nil {
		file, err := fileHeader.Open()
		if err != nil {
			return err
		}
		defer file.Close()
		body = file
	} else {
		if len(ctx.Body()) == 0 {
			return apperr.UserInput("missing import file")
		}
		body = bytes.NewReader(ctx.Body())
	}

	res, err := c.importService.Import(ctx.Context(), userId, body)
	if err != nil {
		return err
	}

	message := "Import completed"
	if !res.Imported {
		message = "Choose a player to import"
	}
	return ctx.JSON(serverutils.SuccessResponse(message, res))
}

func (c *importController) ChooseOwner(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.ChooseOwnerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.importService.ChooseOwner(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Import completed", res))
}
