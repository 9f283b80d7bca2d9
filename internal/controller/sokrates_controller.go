package controller

import (
	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/serverutils"
	"github.com/pagpeter/obsidian-extensions/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISokratesController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Evaluate(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
}

type sokratesController struct {
	service service.ISokratesService
}

func NewSokratesController(service service.ISokratesService) ISokratesController {
	return &sokratesController{service: service}
}

func (c *sokratesController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/sokrates/v1")
	h.Use(guard)
	h.Post("/evaluate", c.Evaluate)
	h.Get("/feedback", c.History)
}

func (c *sokratesController) Evaluate(ctx *fiber.Ctx) error {
	var req dto.SokratesEvaluateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Evaluate(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Feedback received", res))
}

// History pages through stored feedback with ?page=&limit=, newest first.
func (c *sokratesController) History(ctx *fiber.Ctx) error {
	page := ctx.QueryInt("page", 1)
	limit := ctx.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	res, err := c.service.History(ctx.Context(), limit, (page-1)*limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}
