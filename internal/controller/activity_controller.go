package controller

import (
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IActivityController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type activityController struct {
	activityService service.IActivityService
	auth            fiber.Handler
}

func NewActivityController(activityService service.IActivityService, auth fiber.Handler) IActivityController {
	return &activityController{
		activityService: activityService,
		auth:            auth,
	}
}

func (c *activityController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/activity/v1")
	h.Use(c.auth)
	h.Get("", c.List)
}

func (c *activityController) List(ctx *fiber.Ctx) error {
	userId, err := currentUser(ctx)
	if err != nil {
		return err
	}

	res := c.activityService.Recent(userId, ctx.QueryInt("limit", 20))
	return ctx.JSON(serverutils.SuccessResponse("Success list activity", res))
}
