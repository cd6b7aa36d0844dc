package handler

import (
	"net/http"

	"sinai/internal/dto"
	"sinai/internal/service"

	"github.com/gin-gonic/gin"
)

type PagosHandler struct {
	pagoSvc service.PagoService
	planSvc service.PlanPagoService
}

func NewPagosHandler(pagoSvc service.PagoService, planSvc service.PlanPagoService) *PagosHandler {
	return &PagosHandler{pagoSvc: pagoSvc, planSvc: planSvc}
}

// Registrar godoc
// @Summary Registra un pago de cuota sobre un plan
// @Tags pagos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.RegistrarPagoRequest true "Datos del pago"
// @Success 201 {object} dto.PagoResponse
// @Failure 409 {object} apierror.Error "caja cerrada o sobrepago"
// @Router /v1/pagos [post]
func (h *PagosHandler) Registrar(c *gin.Context) {
	var req dto.RegistrarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.pagoSvc.Registrar(c.Request.Context(), usuarioIDDe(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Actualizar corrige monto, caja, fecha o método de un pago existente.
// La diferencia se concilia con movimientos compensatorios.
func (h *PagosHandler) Actualizar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ActualizarPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.pagoSvc.Actualizar(c.Request.Context(), id, usuarioIDDe(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PagosHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.pagoSvc.Eliminar(c.Request.Context(), id, usuarioIDDe(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ObtenerPlan returns a plan with its derived figures and payment history.
func (h *PagosHandler) ObtenerPlan(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.planSvc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PagosHandler) ObtenerPlanPorVenta(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.planSvc.ObtenerPorVenta(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarMontoInicial adjusts the down payment of a venta's plan,
// reconciling the delta against the given caja.
func (h *PagosHandler) ActualizarMontoInicial(c *gin.Context) {
	ventaID, ok := parseID(c)
	if !ok {
		return
	}
	var req dto.ActualizarMontoInicialRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.pagoSvc.ActualizarMontoInicial(c.Request.Context(), ventaID, usuarioIDDe(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
