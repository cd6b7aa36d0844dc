package handler

// Clientes and lotes are flat CRUD with no invariants beyond field
// validation, so the handlers talk to the repositories directly.

import (
	"net/http"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ClientesHandler struct{ repo repository.ClienteRepository }

func NewClientesHandler(repo repository.ClienteRepository) *ClientesHandler {
	return &ClientesHandler{repo: repo}
}

func (h *ClientesHandler) Crear(c *gin.Context) {
	var req dto.CrearClienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cliente := &model.Cliente{
		ID:        uuid.New(),
		Nombre:    req.Nombre,
		Documento: req.Documento,
		Telefono:  req.Telefono,
		Email:     req.Email,
	}
	if err := h.repo.Create(c.Request.Context(), cliente); err != nil {
		c.JSON(http.StatusConflict, apierror.Conflict("el documento ya está registrado"))
		return
	}
	c.JSON(http.StatusCreated, clienteToResponse(cliente))
}

func (h *ClientesHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	cliente, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.NotFound("cliente no encontrado"))
		return
	}
	c.JSON(http.StatusOK, clienteToResponse(cliente))
}

func (h *ClientesHandler) Listar(c *gin.Context) {
	clientes, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.ClienteResponse, 0, len(clientes))
	for i := range clientes {
		out = append(out, *clienteToResponse(&clientes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func clienteToResponse(cl *model.Cliente) *dto.ClienteResponse {
	return &dto.ClienteResponse{
		ID:        cl.ID.String(),
		Nombre:    cl.Nombre,
		Documento: cl.Documento,
		Telefono:  cl.Telefono,
		Email:     cl.Email,
	}
}

// ── Lotes ────────────────────────────────────────────────────────────────────

type LotesHandler struct{ repo repository.LoteRepository }

func NewLotesHandler(repo repository.LoteRepository) *LotesHandler {
	return &LotesHandler{repo: repo}
}

func (h *LotesHandler) Crear(c *gin.Context) {
	var req dto.CrearLoteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	lote := &model.Lote{
		ID:         uuid.New(),
		Codigo:     req.Codigo,
		Manzana:    req.Manzana,
		Superficie: req.Superficie,
		Precio:     req.Precio,
		Estado:     model.LoteDisponible,
	}
	if err := h.repo.Create(c.Request.Context(), lote); err != nil {
		c.JSON(http.StatusConflict, apierror.Conflict("el código de lote ya existe"))
		return
	}
	c.JSON(http.StatusCreated, loteToResponse(lote))
}

func (h *LotesHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	lote, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.NotFound("lote no encontrado"))
		return
	}
	c.JSON(http.StatusOK, loteToResponse(lote))
}

func (h *LotesHandler) Listar(c *gin.Context) {
	lotes, err := h.repo.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]dto.LoteResponse, 0, len(lotes))
	for i := range lotes {
		out = append(out, *loteToResponse(&lotes[i]))
	}
	c.JSON(http.StatusOK, out)
}

func loteToResponse(l *model.Lote) *dto.LoteResponse {
	return &dto.LoteResponse{
		ID:         l.ID.String(),
		Codigo:     l.Codigo,
		Manzana:    l.Manzana,
		Superficie: l.Superficie,
		Precio:     l.Precio,
		Estado:     l.Estado,
	}
}
