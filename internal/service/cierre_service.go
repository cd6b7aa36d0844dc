package service

import (
	"context"
	"time"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/infra"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CierreService interface {
	CerrarCaja(ctx context.Context, cajaID uuid.UUID, usuarioID *uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error)
	ObtenerUltimo(ctx context.Context, cajaID uuid.UUID) (*dto.CierreResponse, error)
}

type cierreService struct {
	repo     repository.CierreRepository
	cajaRepo repository.CajaRepository
	cache    *infra.SaldoCache
}

func NewCierreService(repo repository.CierreRepository, cajaRepo repository.CajaRepository, cache *infra.SaldoCache) CierreService {
	return &cierreService{repo: repo, cajaRepo: cajaRepo, cache: cache}
}

// ── CerrarCaja ────────────────────────────────────────────────────────────────
// The expected balance (saldo_final) always comes from the ledger, never from
// the caller; diferencia = saldo_real − saldo_final. The caja transitions to
// cerrada; its movements and balance are not reset — the next Abrir starts a
// fresh cycle with an explicit monto_inicial.

func (s *cierreService) CerrarCaja(ctx context.Context, cajaID uuid.UUID, usuarioID *uuid.UUID, req dto.CerrarCajaRequest) (*dto.CierreResponse, error) {
	if req.SaldoReal.IsNegative() {
		return nil, apierror.Validation("el saldo declarado no puede ser negativo")
	}

	var cierre *model.CierreCaja
	txErr := runTx(ctx, s.cajaRepo.DB(), func(tx *gorm.DB) error {
		caja, err := s.cajaRepo.FindByIDForUpdate(ctx, tx, cajaID)
		if err != nil {
			return notFoundOr(err, "caja no encontrada")
		}
		if caja.Estado != model.CajaAbierta {
			return apierror.ClosedBox("la caja ya está cerrada")
		}

		saldoFinal := caja.SaldoActual
		diferencia := req.SaldoReal.Sub(saldoFinal)

		var pct decimal.Decimal
		if !saldoFinal.IsZero() {
			pct = diferencia.Div(saldoFinal).Mul(decimal.NewFromInt(100)).Round(2)
		} else if !diferencia.IsZero() {
			// A discrepancy against an empty expected balance is always critical.
			pct = decimal.NewFromInt(100)
		}
		clasificacion := clasificarDiferencia(pct)

		// Un cierre con diferencia crítica exige observaciones del supervisor.
		if clasificacion == "critico" && (req.Observaciones == nil || *req.Observaciones == "") {
			return apierror.Validation("diferencia crítica: se requieren observaciones del supervisor")
		}

		cierre = &model.CierreCaja{
			ID:            uuid.New(),
			CajaID:        caja.ID,
			UsuarioID:     usuarioID,
			Tipo:          req.Tipo,
			SaldoInicial:  caja.MontoInicial,
			SaldoFinal:    saldoFinal,
			SaldoReal:     req.SaldoReal,
			Diferencia:    diferencia,
			DiferenciaPct: &pct,
			Clasificacion: &clasificacion,
			Observaciones: req.Observaciones,
			FechaCierre:   time.Now(),
		}
		if err := s.repo.CreateTx(orDB(tx, s.cajaRepo.DB()), cierre); err != nil {
			return err
		}

		caja.Estado = model.CajaCerrada
		if tx == nil {
			return s.cajaRepo.Update(ctx, caja)
		}
		return s.cajaRepo.UpdateTx(tx, caja)
	})
	if txErr != nil {
		return nil, translateLockErr(txErr)
	}

	s.cache.Invalidate(ctx, cajaID)
	return cierreToResponse(cierre), nil
}

func (s *cierreService) ObtenerUltimo(ctx context.Context, cajaID uuid.UUID) (*dto.CierreResponse, error) {
	cierre, err := s.repo.FindUltimoByCaja(ctx, cajaID)
	if err != nil {
		return nil, apierror.NotFound("la caja no tiene cierres registrados")
	}
	return cierreToResponse(cierre), nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// clasificarDiferencia returns "normal" | "advertencia" | "critico"
// normal: |pct| <= 1%, advertencia: <= 5%, critico: > 5%
func clasificarDiferencia(pct decimal.Decimal) string {
	abs := pct.Abs()
	one := decimal.NewFromInt(1)
	five := decimal.NewFromInt(5)
	switch {
	case abs.LessThanOrEqual(one):
		return "normal"
	case abs.LessThanOrEqual(five):
		return "advertencia"
	default:
		return "critico"
	}
}

func cierreToResponse(c *model.CierreCaja) *dto.CierreResponse {
	resp := &dto.CierreResponse{
		ID:            c.ID.String(),
		CajaID:        c.CajaID.String(),
		Tipo:          c.Tipo,
		SaldoInicial:  c.SaldoInicial,
		SaldoFinal:    c.SaldoFinal,
		SaldoReal:     c.SaldoReal,
		Diferencia:    c.Diferencia,
		Observaciones: c.Observaciones,
		FechaCierre:   c.FechaCierre.Format(time.RFC3339),
	}
	if c.DiferenciaPct != nil {
		resp.DiferenciaPct = *c.DiferenciaPct
	}
	if c.Clasificacion != nil {
		resp.Clasificacion = *c.Clasificacion
	}
	return resp
}
