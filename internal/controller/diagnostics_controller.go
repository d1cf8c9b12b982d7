package controller

import (
	"strconv"

	"nova-drive-be/internal/dto"
	"nova-drive-be/internal/pkg/logger"
	"nova-drive-be/internal/pkg/serverutils"
	"nova-drive-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IDiagnosticsController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetIncidents(ctx *fiber.Ctx) error
}

type diagnosticsController struct {
	logs      logger.LogReader
	incidents service.IIncidentService
}

func NewDiagnosticsController(logs logger.LogReader, incidents service.IIncidentService) IDiagnosticsController {
	return &diagnosticsController{logs: logs, incidents: incidents}
}

func (c *diagnosticsController) RegisterRoutes(r fiber.Router) {
	r.Get("/diagnostics/logs", c.GetLogs)
	r.Get("/incidents", c.GetIncidents)
}

// pageParams turns page/limit query values into a clamped limit and offset.
func pageParams(ctx *fiber.Ctx, defLimit int) (int, int) {
	page, _ := strconv.Atoi(ctx.Query("page", "1"))
	limit, _ := strconv.Atoi(ctx.Query("limit", strconv.Itoa(defLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = defLimit
	}
	return limit, (page - 1) * limit
}

func (c *diagnosticsController) GetLogs(ctx *fiber.Ctx) error {
	limit, offset := pageParams(ctx, 50)
	level := ctx.Query("level", "")

	entries, err := c.logs.GetLogs(level, limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}

	res := make([]dto.LogDetailResponse, 0, len(entries))
	for _, e := range entries {
		res = append(res, dto.LogDetailResponse{
			LogListResponse: dto.LogListResponse{
				Id:        e.Id,
				Level:     e.Level,
				Module:    e.Module,
				Message:   e.Message,
				Timestamp: e.Timestamp,
			},
			Details: e.Details,
		})
	}
	return ctx.JSON(serverutils.SuccessResponse("System logs", res))
}

func (c *diagnosticsController) GetIncidents(ctx *fiber.Ctx) error {
	limit, offset := pageParams(ctx, 20)

	res, err := c.incidents.ListIncidents(ctx.UserContext(), limit, offset)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(serverutils.ErrorResponse(500, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("Incidents", res))
}
