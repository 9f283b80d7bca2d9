package controller

import (
	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/serverutils"
	"github.com/pagpeter/obsidian-extensions/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAnkiController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Sync(ctx *fiber.Ctx) error
	Preview(ctx *fiber.Ctx) error
}

type ankiController struct {
	service service.IAnkiService
}

func NewAnkiController(service service.IAnkiService) IAnkiController {
	return &ankiController{service: service}
}

func (c *ankiController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/anki/v1")
	h.Use(guard)
	h.Post("/sync", c.Sync)
	h.Post("/preview", c.Preview)
}

func (c *ankiController) Sync(ctx *fiber.Ctx) error {
	var req dto.AnkiSyncRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SyncFolder(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cards synced", res))
}

func (c *ankiController) Preview(ctx *fiber.Ctx) error {
	var req dto.AnkiPreviewRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success", c.service.Preview(ctx.Context(), &req)))
}
