package controller

import (
	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/pkg/serverutils"
	"nova-drive-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAssistantController interface {
	RegisterRoutes(r fiber.Router)
	PressMic(ctx *fiber.Ctx) error
	EnableMonitoring(ctx *fiber.Ctx) error
	DisableMonitoring(ctx *fiber.Ctx) error
	MonitorMode(ctx *fiber.Ctx) error
	ReceiveLocation(ctx *fiber.Ctx) error
	State(ctx *fiber.Ctx) error
}

type assistantController struct {
	service service.IAssistantService
}

func NewAssistantController(service service.IAssistantService) IAssistantController {
	return &assistantController{service: service}
}

func (c *assistantController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/assistant")
	h.Post("/mic", c.PressMic)
	h.Post("/monitoring/enable", c.EnableMonitoring)
	h.Post("/monitoring/disable", c.DisableMonitoring)
	h.Get("/monitoring", c.MonitorMode)
	h.Post("/location", c.ReceiveLocation)
	h.Get("/state", c.State)
}

func (c *assistantController) PressMic(ctx *fiber.Ctx) error {
	c.service.PressMic(ctx.UserContext())
	return ctx.Status(fiber.StatusAccepted).JSON(c.service.State())
}

func (c *assistantController) EnableMonitoring(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.EnableMonitoring(ctx.UserContext()))
}

func (c *assistantController) DisableMonitoring(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.DisableMonitoring(ctx.UserContext()))
}

func (c *assistantController) MonitorMode(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.MonitorMode())
}

func (c *assistantController) ReceiveLocation(ctx *fiber.Ctx) error {
	var req dto.LocationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "Invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.ReceiveLocation(ctx.UserContext(), req)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(res)
}

func (c *assistantController) State(ctx *fiber.Ctx) error {
	return ctx.JSON(c.service.State())
}
