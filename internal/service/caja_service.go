package service

import (
	"context"
	"errors"
	"time"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/infra"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CajaService interface {
	Crear(ctx context.Context, req dto.CrearCajaRequest) (*dto.CajaResponse, error)
	Listar(ctx context.Context) ([]dto.CajaResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error)
	Abrir(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error)
	RegistrarMovimiento(ctx context.Context, usuarioID *uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error)
	ObtenerSaldo(ctx context.Context, id uuid.UUID) (*dto.SaldoResponse, error)
	ListarMovimientos(ctx context.Context, id uuid.UUID, page, limit int) (*dto.MovimientoListResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type cajaService struct {
	repo     repository.CajaRepository
	planRepo repository.PlanPagoRepository
	cache    *infra.SaldoCache
}

func NewCajaService(repo repository.CajaRepository, planRepo repository.PlanPagoRepository, cache *infra.SaldoCache) CajaService {
	return &cajaService{repo: repo, planRepo: planRepo, cache: cache}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *cajaService) Crear(ctx context.Context, req dto.CrearCajaRequest) (*dto.CajaResponse, error) {
	caja := &model.Caja{
		Nombre: req.Nombre,
		Estado: model.CajaCerrada,
	}
	if err := s.repo.Create(ctx, caja); err != nil {
		return nil, err
	}
	return cajaToResponse(caja), nil
}

func (s *cajaService) Listar(ctx context.Context) ([]dto.CajaResponse, error) {
	cajas, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CajaResponse, 0, len(cajas))
	for i := range cajas {
		out = append(out, *cajaToResponse(&cajas[i]))
	}
	return out, nil
}

func (s *cajaService) Obtener(ctx context.Context, id uuid.UUID) (*dto.CajaResponse, error) {
	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("caja no encontrada")
	}
	return cajaToResponse(caja), nil
}

// ── Abrir ─────────────────────────────────────────────────────────────────────
// Opening starts a fresh balance cycle: monto_inicial and saldo_actual are
// reset, movement history is preserved.

func (s *cajaService) Abrir(ctx context.Context, id uuid.UUID, usuarioID *uuid.UUID, req dto.AbrirCajaRequest) (*dto.CajaResponse, error) {
	if req.MontoInicial.IsNegative() {
		return nil, apierror.Validation("el monto inicial no puede ser negativo")
	}

	var caja *model.Caja
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		var err error
		caja, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err, "caja no encontrada")
		}
		if caja.Estado == model.CajaAbierta {
			return apierror.ClosedBox("la caja ya está abierta")
		}

		caja.MontoInicial = req.MontoInicial
		caja.SaldoActual = req.MontoInicial
		caja.Estado = model.CajaAbierta
		caja.AbiertaPorID = usuarioID
		return s.updateCaja(ctx, tx, caja)
	})
	if err != nil {
		return nil, translateLockErr(err)
	}

	s.cache.Invalidate(ctx, id)
	return cajaToResponse(caja), nil
}

// ── RegistrarMovimiento ───────────────────────────────────────────────────────
// Manual ingreso / egreso. The movement append and the saldo update commit as
// one unit; movements are immutable afterward.

func (s *cajaService) RegistrarMovimiento(ctx context.Context, usuarioID *uuid.UUID, req dto.MovimientoRequest) (*dto.MovimientoResponse, error) {
	cajaID, err := uuid.Parse(req.CajaID)
	if err != nil {
		return nil, apierror.Validation("caja_id inválido")
	}
	if montoInvalido(req.Monto) {
		return nil, apierror.Validation("el monto mínimo es 0.01, sin fracciones de centavo")
	}
	fecha, err := parseFechaOpcional(req.Fecha)
	if err != nil {
		return nil, err
	}

	mov := &model.MovimientoCaja{
		ID:          uuid.New(),
		CajaID:      cajaID,
		UsuarioID:   usuarioID,
		Tipo:        req.Tipo,
		Monto:       req.Monto,
		Descripcion: req.Descripcion,
		MetodoPago:  req.MetodoPago,
		Referencia:  req.Referencia,
		Fecha:       fecha,
	}

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		caja, err := s.repo.FindByIDForUpdate(ctx, tx, cajaID)
		if err != nil {
			return notFoundOr(err, "caja no encontrada")
		}
		if caja.Estado != model.CajaAbierta {
			return apierror.ClosedBox("la caja está cerrada y no acepta movimientos")
		}

		if err := s.repo.CreateMovimientoTx(orDB(tx, s.repo.DB()), mov); err != nil {
			return err
		}
		caja.SaldoActual = caja.SaldoActual.Add(mov.Signo())
		return s.updateCaja(ctx, tx, caja)
	})
	if txErr != nil {
		return nil, translateLockErr(txErr)
	}

	s.cache.Invalidate(ctx, cajaID)
	return movimientoToResponse(mov), nil
}

// ── ObtenerSaldo ──────────────────────────────────────────────────────────────
// Display read: served from a short-TTL cache when available. Snapshots are
// stale-tolerant and never feed a write decision.

func (s *cajaService) ObtenerSaldo(ctx context.Context, id uuid.UUID) (*dto.SaldoResponse, error) {
	if cached, ok := s.cache.Get(ctx, id); ok {
		return cached, nil
	}

	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("caja no encontrada")
	}
	resp := &dto.SaldoResponse{
		CajaID: caja.ID.String(),
		Saldo:  caja.SaldoActual,
		Estado: caja.Estado,
	}
	s.cache.Set(ctx, id, resp)
	return resp, nil
}

// ── ListarMovimientos ─────────────────────────────────────────────────────────
// Paginated, fecha descending. Aggregate totals cover the FULL movement set.

func (s *cajaService) ListarMovimientos(ctx context.Context, id uuid.UUID, page, limit int) (*dto.MovimientoListResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	caja, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apierror.NotFound("caja no encontrada")
	}

	movs, total, err := s.repo.ListMovimientos(ctx, id, page, limit)
	if err != nil {
		return nil, err
	}
	ingresos, egresos, err := s.repo.SumMovimientos(ctx, id)
	if err != nil {
		return nil, err
	}

	data := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		data = append(data, *movimientoToResponse(&movs[i]))
	}

	return &dto.MovimientoListResponse{
		Data:  data,
		Total: total,
		Page:  page,
		Limit: limit,
		Totales: dto.TotalesMovimientos{
			TotalIngresos: ingresos,
			TotalEgresos:  egresos,
			Balance:       caja.SaldoActual,
		},
	}, nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────
// A caja is only deletable while nothing references it: no movimientos in its
// ledger and no pagos deposited into it.

func (s *cajaService) Eliminar(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apierror.NotFound("caja no encontrada")
	}

	nMovs, err := s.repo.CountMovimientos(ctx, id)
	if err != nil {
		return err
	}
	if nMovs > 0 {
		return apierror.Conflict("la caja tiene movimientos registrados y no puede eliminarse")
	}
	nPagos, err := s.planRepo.CountPagosByCaja(ctx, id)
	if err != nil {
		return err
	}
	if nPagos > 0 {
		return apierror.Conflict("existen pagos que referencian esta caja")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	return nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func (s *cajaService) updateCaja(ctx context.Context, tx *gorm.DB, caja *model.Caja) error {
	if tx == nil {
		return s.repo.Update(ctx, caja)
	}
	return s.repo.UpdateTx(tx, caja)
}

// orDB picks tx when inside a transaction, otherwise the fallback handle.
// Both may be nil in unit test mode; repos tolerate that.
func orDB(tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apierror.NotFound(msg)
	}
	if kindOfIsNotFound(err) {
		return apierror.NotFound(msg)
	}
	return err
}

// kindOfIsNotFound lets in-memory test repositories signal "not found" with
// plain errors.New("not found").
func kindOfIsNotFound(err error) bool {
	return err != nil && err.Error() == "not found"
}

func parseFechaOpcional(raw *string) (time.Time, error) {
	if raw == nil || *raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return time.Time{}, apierror.Validation("fecha inválida, se espera RFC 3339")
	}
	return t, nil
}

func cajaToResponse(c *model.Caja) *dto.CajaResponse {
	return &dto.CajaResponse{
		ID:           c.ID.String(),
		Nombre:       c.Nombre,
		MontoInicial: c.MontoInicial,
		SaldoActual:  c.SaldoActual,
		Estado:       c.Estado,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

func movimientoToResponse(m *model.MovimientoCaja) *dto.MovimientoResponse {
	resp := &dto.MovimientoResponse{
		ID:          m.ID.String(),
		CajaID:      m.CajaID.String(),
		Tipo:        m.Tipo,
		Monto:       m.Monto,
		Descripcion: m.Descripcion,
		MetodoPago:  m.MetodoPago,
		Referencia:  m.Referencia,
		Fecha:       m.Fecha.Format(time.RFC3339),
	}
	if m.PagoID != nil {
		id := m.PagoID.String()
		resp.PagoID = &id
	}
	return resp
}
