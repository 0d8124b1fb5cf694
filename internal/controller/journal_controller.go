package controller

import (
	"memory-beads-be/internal/dto"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IJournalController interface {
	RegisterRoutes(r fiber.Router)
	Show(ctx *fiber.Ctx) error
	SetTab(ctx *fiber.Ctx) error
	Select(ctx *fiber.Ctx) error
	SetEditing(ctx *fiber.Ctx) error
	EditBead(ctx *fiber.Ctx) error
	Reflect(ctx *fiber.Ctx) error
	AdvanceQueue(ctx *fiber.Ctx) error
}

type journalController struct {
	journalService service.IJournalService
	auth           fiber.Handler
}

func NewJournalController(journalService service.IJournalService, auth fiber.Handler) IJournalController {
	return &journalController{
		journalService: journalService,
		auth:           auth,
	}
}

func (c *journalController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/journal/v1")
	h.Use(c.auth)
	h.Get("", c.Show)
	h.Put("tab", c.SetTab)
	h.Put("selection", c.Select)
	h.Put("editing", c.SetEditing)
	h.Put("beads/:id", c.EditBead)
	h.Post("beads/:id/reflect", c.Reflect)
	h.Post("queue/advance", c.AdvanceQueue)
}

// currentUser reads the caller's id set by the JWT middleware.
func currentUser(ctx *fiber.Ctx) (uuid.UUID, error) {
	userId, err := uuid.Parse(serverutils.UserId(ctx))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid token subject")
	}
	return userId, nil
}

func (c *journalController) Show(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.journalService.Snapshot(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show journal", res))
}

func (c *journalController) SetTab(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.SetTabRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.journalService.SetTab(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set tab", res))
}

func (c *journalController) Select(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.SelectBeadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.journalService.Select(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success select bead", res))
}

func (c *journalController) SetEditing(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.SetEditingRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.journalService.SetEditing(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success set editing", res))
}

func (c *journalController) EditBead(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.EditBeadRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.journalService.Edit(ctx.Context(), userId, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success edit bead", res))
}

func (c *journalController) Reflect(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	var req dto.ReflectRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.journalService.Reflect(ctx.Context(), userId, ctx.Params("id"), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success reflect on bead", res))
}

func (c *journalController) AdvanceQueue(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	res, err := c.journalService.AdvanceQueue(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success advance queue", res))
}
