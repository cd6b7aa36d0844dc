package service

import (
	"context"
	"fmt"
	"time"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/infra"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type VentaService interface {
	Crear(ctx context.Context, vendedorID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
	Anular(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID) error
}

type ventaService struct {
	ventaRepo  repository.VentaRepository
	planRepo   repository.PlanPagoRepository
	cajaRepo   repository.CajaRepository
	loteRepo   repository.LoteRepository
	cache      *infra.SaldoCache
	graciaDias int
}

func NewVentaService(
	ventaRepo repository.VentaRepository,
	planRepo repository.PlanPagoRepository,
	cajaRepo repository.CajaRepository,
	loteRepo repository.LoteRepository,
	cache *infra.SaldoCache,
	graciaDias int,
) VentaService {
	return &ventaService{
		ventaRepo:  ventaRepo,
		planRepo:   planRepo,
		cajaRepo:   cajaRepo,
		loteRepo:   loteRepo,
		cache:      cache,
		graciaDias: graciaDias,
	}
}

// Crear registers the venta, its installment plan and the lote transition
// in one transaction. When caja_id comes in the request the down payment
// is posted as an ingreso on that caja within the same transaction.
func (s *ventaService) Crear(ctx context.Context, vendedorID uuid.UUID, req dto.CrearVentaRequest) (*dto.VentaResponse, error) {
	clienteID, err := uuid.Parse(req.ClienteID)
	if err != nil {
		return nil, apierror.Validation("cliente_id inválido")
	}
	loteID, err := uuid.Parse(req.LoteID)
	if err != nil {
		return nil, apierror.Validation("lote_id inválido")
	}
	if req.MontoInicial.IsNegative() || !req.MontoInicial.Equal(req.MontoInicial.Round(2)) {
		return nil, apierror.Validation("el monto inicial no puede ser negativo ni llevar fracciones de centavo")
	}
	if req.MontoInicial.GreaterThan(req.PrecioTotal) {
		return nil, apierror.Validation("el monto inicial no puede superar el precio total")
	}

	var cajaID *uuid.UUID
	if req.CajaID != nil && req.MontoInicial.IsPositive() {
		parsed, err := uuid.Parse(*req.CajaID)
		if err != nil {
			return nil, apierror.Validation("caja_id inválido")
		}
		cajaID = &parsed
	}

	fechaInicio, err := parseFechaOpcional(req.FechaInicio)
	if err != nil {
		return nil, err
	}

	venta := &model.Venta{
		ID:          uuid.New(),
		ClienteID:   clienteID,
		LoteID:      loteID,
		VendedorID:  vendedorID,
		PrecioTotal: req.PrecioTotal,
		Estado:      model.VentaActiva,
	}

	plan := &model.PlanPago{
		ID:           uuid.New(),
		VentaID:      venta.ID,
		Total:        req.PrecioTotal,
		MontoInicial: req.MontoInicial,
		Plazo:        req.Plazo,
		Periodicidad: req.Periodicidad,
		FechaInicio:  fechaInicio,
		Estado:       model.PlanActivo,
	}
	// A down payment covering the full price leaves nothing to collect.
	if req.MontoInicial.Equal(req.PrecioTotal) {
		plan.Estado = model.PlanPagado
	}
	plan.FechaVencimiento = fechaInicio.AddDate(0, 0, plan.PeriodoDias()*plan.Plazo)

	txErr := runTx(ctx, s.ventaRepo.DB(), func(tx *gorm.DB) error {
		lote, err := s.loteRepo.FindByID(ctx, loteID)
		if err != nil {
			return notFoundOr(err, "lote no encontrado")
		}
		if lote.Estado == model.LoteVendido {
			return apierror.Conflict("el lote ya está vendido")
		}

		if err := s.ventaRepo.CreateTx(orDB(tx, s.ventaRepo.DB()), venta); err != nil {
			return err
		}
		if err := s.planRepo.CreateTx(orDB(tx, s.planRepo.DB()), plan); err != nil {
			return err
		}
		if err := s.loteRepo.UpdateEstadoTx(orDB(tx, s.loteRepo.DB()), loteID, model.LoteVendido); err != nil {
			return err
		}

		if cajaID != nil {
			caja, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, *cajaID)
			if err != nil {
				return notFoundOr(err, "caja no encontrada")
			}
			if caja.Estado != model.CajaAbierta {
				return apierror.ClosedBox("la caja está cerrada y no acepta movimientos")
			}
			metodo := "efectivo"
			if req.MetodoPago != nil {
				metodo = *req.MetodoPago
			}
			mov := &model.MovimientoCaja{
				ID:          uuid.New(),
				CajaID:      caja.ID,
				UsuarioID:   &vendedorID,
				Tipo:        model.MovimientoIngreso,
				Monto:       req.MontoInicial,
				Descripcion: fmt.Sprintf("Cuota inicial venta %s", venta.ID),
				MetodoPago:  metodo,
				Fecha:       time.Now(),
			}
			if err := s.cajaRepo.CreateMovimientoTx(orDB(tx, s.cajaRepo.DB()), mov); err != nil {
				return err
			}
			caja.SaldoActual = caja.SaldoActual.Add(mov.Signo())
			if tx == nil {
				return s.cajaRepo.Update(ctx, caja)
			}
			return s.cajaRepo.UpdateTx(tx, caja)
		}
		return nil
	})
	if txErr != nil {
		return nil, translateLockErr(txErr)
	}

	if cajaID != nil {
		s.cache.Invalidate(ctx, *cajaID)
	}
	venta.PlanPago = plan
	return s.toResponse(venta), nil
}

func (s *ventaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.ventaRepo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("venta no encontrada")
	}
	return s.toResponse(venta), nil
}

func (s *ventaService) Listar(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}
	ventas, total, err := s.ventaRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		out = append(out, *s.toResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: out, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Anular reverses every pago of the plan with a compensating egreso on its
// caja, marks the plan cancelado, frees the lote and flags the venta
// anulada. Pago rows survive for audit; only the balances move back.
// All cajas touched must be abiertas or the whole anulación rolls back.
func (s *ventaService) Anular(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID) error {
	venta, err := s.ventaRepo.FindByID(ctx, id)
	if err != nil {
		return apierror.NotFound("venta no encontrada")
	}
	if venta.Estado == model.VentaAnulada {
		return apierror.Conflict("la venta ya está anulada")
	}
	if venta.PlanPago == nil {
		return apierror.NotFound("la venta no tiene plan de pago")
	}

	cajasTocadas := map[uuid.UUID]struct{}{}

	txErr := runTx(ctx, s.ventaRepo.DB(), func(tx *gorm.DB) error {
		plan, err := s.planRepo.FindByIDForUpdate(ctx, tx, venta.PlanPago.ID)
		if err != nil {
			return notFoundOr(err, "plan de pago no encontrado")
		}

		// Reverse locked cajas one at a time; repeated pagos on the same
		// caja accumulate on the already-locked row.
		cajas := map[uuid.UUID]*model.Caja{}
		for i := range plan.Pagos {
			pago := &plan.Pagos[i]
			caja, ok := cajas[pago.CajaID]
			if !ok {
				caja, err = s.cajaRepo.FindByIDForUpdate(ctx, tx, pago.CajaID)
				if err != nil {
					return notFoundOr(err, "caja no encontrada")
				}
				if caja.Estado != model.CajaAbierta {
					return apierror.ClosedBox(fmt.Sprintf("la caja %s está cerrada, no se puede anular la venta", caja.ID))
				}
				cajas[pago.CajaID] = caja
			}
			mov := &model.MovimientoCaja{
				ID:          uuid.New(),
				CajaID:      caja.ID,
				UsuarioID:   usuarioID,
				Tipo:        model.MovimientoEgreso,
				Monto:       pago.Monto,
				Descripcion: fmt.Sprintf("Reversión por anulación de venta %s", venta.ID),
				MetodoPago:  pago.MetodoPago,
				PagoID:      &pago.ID,
				Fecha:       time.Now(),
			}
			if err := s.cajaRepo.CreateMovimientoTx(orDB(tx, s.cajaRepo.DB()), mov); err != nil {
				return err
			}
			caja.SaldoActual = caja.SaldoActual.Add(mov.Signo())
		}
		for cajaID, caja := range cajas {
			cajasTocadas[cajaID] = struct{}{}
			var err error
			if tx == nil {
				err = s.cajaRepo.Update(ctx, caja)
			} else {
				err = s.cajaRepo.UpdateTx(tx, caja)
			}
			if err != nil {
				return err
			}
		}

		plan.Estado = model.PlanCancelado
		if err := s.planRepo.UpdateTx(orDB(tx, s.planRepo.DB()), plan); err != nil {
			return err
		}
		if err := s.loteRepo.UpdateEstadoTx(orDB(tx, s.loteRepo.DB()), venta.LoteID, model.LoteDisponible); err != nil {
			return err
		}
		return s.ventaRepo.UpdateEstadoTx(orDB(tx, s.ventaRepo.DB()), venta.ID, model.VentaAnulada)
	})
	if txErr != nil {
		return translateLockErr(txErr)
	}

	for cajaID := range cajasTocadas {
		s.cache.Invalidate(ctx, cajaID)
	}
	log.Info().Str("venta_id", venta.ID.String()).Msg("venta anulada")
	return nil
}

func (s *ventaService) toResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:          v.ID.String(),
		ClienteID:   v.ClienteID.String(),
		LoteID:      v.LoteID.String(),
		VendedorID:  v.VendedorID.String(),
		PrecioTotal: v.PrecioTotal,
		Estado:      v.Estado,
		CreatedAt:   v.CreatedAt.Format(time.RFC3339),
	}
	if v.PlanPago != nil {
		resp.PlanPago = planToResponse(v.PlanPago, s.graciaDias, time.Now())
	}
	return resp
}
