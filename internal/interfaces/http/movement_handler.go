package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/warehouse-monitoring/internal/application/inventory"
)

// MovementHandler consulta de movimientos correlacionados.
type MovementHandler struct {
	uc *inventory.MovementQueryUseCase
}

// NewMovementHandler construye el handler.
func NewMovementHandler(uc *inventory.MovementQueryUseCase) *MovementHandler {
	return &MovementHandler{uc: uc}
}

// GetMovement godoc
// @Summary      Movimiento correlacionado (salida + llegada)
// @Description  Reconstruye el movimiento a partir de sus eventos ordenados por tiempo de evento.
//
//	Los campos del lado no observado se devuelven como null.
//
// @Tags         movements
// @Security     Bearer
// @Produce      json
// @Param        movement_id  path  string  true  "Identificador del movimiento"
// @Success      200  {object}  dto.MovementResponse
// @Failure      404  {object}  dto.ErrorResponse  "NOT_FOUND o NO_VALID_EVENTS"
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/movements/{movement_id} [get]
func (h *MovementHandler) GetMovement(c *fiber.Ctx) error {
	out, err := h.uc.GetMovement(c.UserContext(), c.Params("movement_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}
