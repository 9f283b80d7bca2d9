package controller

import (
	"github.com/pagpeter/obsidian-extensions/internal/dto"
	"github.com/pagpeter/obsidian-extensions/internal/pkg/serverutils"
	"github.com/pagpeter/obsidian-extensions/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ICopilotController interface {
	RegisterRoutes(r fiber.Router, guard fiber.Handler)
	Sync(ctx *fiber.Ctx) error
	CreateCache(ctx *fiber.Ctx) error
	LoadCache(ctx *fiber.Ctx) error
	Prepare(ctx *fiber.Ctx) error
	Ask(ctx *fiber.Ctx) error
	Status(ctx *fiber.Ctx) error
}

type copilotController struct {
	service service.ICopilotService
}

func NewCopilotController(service service.ICopilotService) ICopilotController {
	return &copilotController{service: service}
}

func (c *copilotController) RegisterRoutes(r fiber.Router, guard fiber.Handler) {
	h := r.Group("/copilot/v1")
	h.Use(guard)
	h.Post("/sync", c.Sync)
	h.Post("/cache", c.CreateCache)
	h.Post("/cache/load", c.LoadCache)
	h.Post("/prepare", c.Prepare)
	h.Post("/ask", c.Ask)
	h.Get("/status", c.Status)
}

func (c *copilotController) Sync(ctx *fiber.Ctx) error {
	var req dto.CopilotSyncRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Sync(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Files synced", res))
}

func (c *copilotController) CreateCache(ctx *fiber.Ctx) error {
	res, err := c.service.CreateCache(ctx.Context())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cache created", res))
}

func (c *copilotController) LoadCache(ctx *fiber.Ctx) error {
	var req dto.CopilotLoadCacheRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.LoadCache(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Cache loaded", res))
}

// Prepare accepts an empty body and then falls back to the configured files.
func (c *copilotController) Prepare(ctx *fiber.Ctx) error {
	var req dto.CopilotPrepareRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
		}
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Prepare(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Copilot ready", res))
}

func (c *copilotController) Ask(ctx *fiber.Ctx) error {
	var req dto.CopilotAskRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Ask(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *copilotController) Status(ctx *fiber.Ctx) error {
	return ctx.JSON(serverutils.SuccessResponse("Success", c.service.Status(ctx.Context())))
}
