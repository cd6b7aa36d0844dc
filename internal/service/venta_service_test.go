package service

import (
	"context"
	"testing"

	"sinai/internal/apierror"
	"sinai/internal/dto"
	"sinai/internal/infra"
	"sinai/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ventaFixture struct {
	cajaRepo  *memCajaRepo
	planRepo  *memPlanRepo
	ventaRepo *memVentaRepo
	loteRepo  *memLoteRepo
	svc       VentaService
	pagoSvc   PagoService
}

func newVentaFixture() *ventaFixture {
	cajaRepo := newMemCajaRepo()
	planRepo := newMemPlanRepo()
	ventaRepo := newMemVentaRepo(planRepo)
	loteRepo := newMemLoteRepo()
	cache := infra.NewSaldoCache(nil, 0)
	return &ventaFixture{
		cajaRepo:  cajaRepo,
		planRepo:  planRepo,
		ventaRepo: ventaRepo,
		loteRepo:  loteRepo,
		svc:       NewVentaService(ventaRepo, planRepo, cajaRepo, loteRepo, cache, 5),
		pagoSvc:   NewPagoService(planRepo, cajaRepo, cache, nil, 5),
	}
}

func (f *ventaFixture) loteDisponible() *model.Lote {
	lote := &model.Lote{
		ID:     uuid.New(),
		Codigo: "MZ1-L05",
		Estado: model.LoteDisponible,
		Precio: decimal.NewFromInt(10000),
	}
	_ = f.loteRepo.Create(context.Background(), lote)
	return lote
}

func crearVentaReq(loteID uuid.UUID) dto.CrearVentaRequest {
	return dto.CrearVentaRequest{
		ClienteID:    uuid.New().String(),
		LoteID:       loteID.String(),
		PrecioTotal:  decimal.NewFromInt(10000),
		MontoInicial: decimal.NewFromInt(2000),
		Plazo:        10,
		Periodicidad: model.PeriodicidadMensual,
	}
}

func TestCrearVenta(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()

	resp, err := f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(lote.ID))
	require.NoError(t, err)

	assert.Equal(t, model.VentaActiva, resp.Estado)
	require.NotNil(t, resp.PlanPago)
	assert.Equal(t, "2000", resp.PlanPago.TotalPagado.String())
	assert.Equal(t, "8000", resp.PlanPago.SaldoPendiente.String())
	// (10000 − 2000) / 10
	assert.Equal(t, "800", resp.PlanPago.MontoCuota.String())

	actualLote, err := f.loteRepo.FindByID(context.Background(), lote.ID)
	require.NoError(t, err)
	assert.Equal(t, model.LoteVendido, actualLote.Estado)
}

func TestCrearVentaConCuotaInicialEnCaja(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()
	caja := cajaAbierta(f.cajaRepo, decimal.Zero)

	req := crearVentaReq(lote.ID)
	cajaID := caja.ID.String()
	req.CajaID = &cajaID

	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	actualCaja, _ := f.cajaRepo.FindByID(context.Background(), caja.ID)
	assert.Equal(t, "2000", actualCaja.SaldoActual.String())

	movs, _, _ := f.cajaRepo.ListMovimientos(context.Background(), caja.ID, 1, 10)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoIngreso, movs[0].Tipo)
}

func TestCrearVentaCajaCerrada(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()
	caja := &model.Caja{ID: uuid.New(), Nombre: "Caja", Estado: model.CajaCerrada}
	require.NoError(t, f.cajaRepo.Create(context.Background(), caja))

	req := crearVentaReq(lote.ID)
	cajaID := caja.ID.String()
	req.CajaID = &cajaID

	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.KindClosedBox, apierror.KindOf(err))
}

func TestCrearVentaLoteYaVendido(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()

	_, err := f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(lote.ID))
	require.NoError(t, err)

	_, err = f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(lote.ID))
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestCrearVentaMontoInicialIgualAlPrecio(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()

	// Pagar el precio completo como cuota inicial deja el plan sin saldo.
	req := crearVentaReq(lote.ID)
	req.MontoInicial = req.PrecioTotal

	resp, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.True(t, resp.PlanPago.SaldoPendiente.IsZero())

	plan, err := f.planRepo.FindByVentaID(context.Background(), uuid.MustParse(resp.ID))
	require.NoError(t, err)
	assert.Equal(t, model.PlanPagado, plan.Estado)
}

func TestCrearVentaMontoInicialMayorAlPrecio(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()

	req := crearVentaReq(lote.ID)
	req.MontoInicial = req.PrecioTotal.Add(decimal.NewFromInt(1))

	_, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestAnularVentaReviertePagos(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()
	caja := cajaAbierta(f.cajaRepo, decimal.NewFromInt(500))

	resp, err := f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(lote.ID))
	require.NoError(t, err)
	ventaID := uuid.MustParse(resp.ID)

	// Dos pagos sobre la caja: saldo 500 + 800 + 400 = 1700
	plan, err := f.planRepo.FindByVentaID(context.Background(), ventaID)
	require.NoError(t, err)
	registrar(t, f.pagoSvc, plan, caja, 800)
	registrar(t, f.pagoSvc, plan, caja, 400)

	require.NoError(t, f.svc.Anular(context.Background(), ventaID, nil))

	// Los egresos compensatorios devuelven el saldo al punto de partida
	actualCaja, _ := f.cajaRepo.FindByID(context.Background(), caja.ID)
	assert.Equal(t, "500", actualCaja.SaldoActual.String())

	// 2 ingresos + 2 egresos: el ledger no se recorta
	n, _ := f.cajaRepo.CountMovimientos(context.Background(), caja.ID)
	assert.EqualValues(t, 4, n)

	// Los pagos sobreviven para auditoría
	actualPlan, _ := f.planRepo.FindByID(context.Background(), plan.ID)
	assert.Len(t, actualPlan.Pagos, 2)
	assert.Equal(t, model.PlanCancelado, actualPlan.Estado)

	actualLote, _ := f.loteRepo.FindByID(context.Background(), lote.ID)
	assert.Equal(t, model.LoteDisponible, actualLote.Estado)

	actualVenta, _ := f.ventaRepo.FindByID(context.Background(), ventaID)
	assert.Equal(t, model.VentaAnulada, actualVenta.Estado)
}

func TestAnularVentaConCajaCerrada(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()
	caja := cajaAbierta(f.cajaRepo, decimal.Zero)

	resp, err := f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(lote.ID))
	require.NoError(t, err)
	ventaID := uuid.MustParse(resp.ID)

	plan, _ := f.planRepo.FindByVentaID(context.Background(), ventaID)
	registrar(t, f.pagoSvc, plan, caja, 800)

	caja.Estado = model.CajaCerrada
	require.NoError(t, f.cajaRepo.Update(context.Background(), caja))

	err = f.svc.Anular(context.Background(), ventaID, nil)
	require.Error(t, err)
	assert.Equal(t, apierror.KindClosedBox, apierror.KindOf(err))

	// Nada cambió: la venta sigue activa
	actualVenta, _ := f.ventaRepo.FindByID(context.Background(), ventaID)
	assert.Equal(t, model.VentaActiva, actualVenta.Estado)
}

func TestAnularVentaYaAnulada(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()

	resp, err := f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(lote.ID))
	require.NoError(t, err)
	ventaID := uuid.MustParse(resp.ID)

	require.NoError(t, f.svc.Anular(context.Background(), ventaID, nil))

	err = f.svc.Anular(context.Background(), ventaID, nil)
	require.Error(t, err)
	assert.Equal(t, apierror.KindConflict, apierror.KindOf(err))
}

func TestListarVentasPorEstado(t *testing.T) {
	f := newVentaFixture()

	r1, err := f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(f.loteDisponible().ID))
	require.NoError(t, err)
	_, err = f.svc.Crear(context.Background(), uuid.New(), crearVentaReq(f.loteDisponible().ID))
	require.NoError(t, err)

	require.NoError(t, f.svc.Anular(context.Background(), uuid.MustParse(r1.ID), nil))

	activas, err := f.svc.Listar(context.Background(), dto.VentaFilter{Estado: model.VentaActiva})
	require.NoError(t, err)
	assert.EqualValues(t, 1, activas.Total)

	todas, err := f.svc.Listar(context.Background(), dto.VentaFilter{Estado: "all"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, todas.Total)
}

func TestAnularVentaRetieneCuotaInicial(t *testing.T) {
	f := newVentaFixture()
	lote := f.loteDisponible()
	caja := cajaAbierta(f.cajaRepo, decimal.Zero)

	req := crearVentaReq(lote.ID)
	cajaID := caja.ID.String()
	req.CajaID = &cajaID

	resp, err := f.svc.Crear(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	ventaID := uuid.MustParse(resp.ID)

	plan, err := f.planRepo.FindByVentaID(context.Background(), ventaID)
	require.NoError(t, err)
	registrar(t, f.pagoSvc, plan, caja, 500)

	require.NoError(t, f.svc.Anular(context.Background(), ventaID, nil))

	// Se revierte el pago pero la cuota inicial queda en la caja; su
	// devolución se registra aparte como egreso manual si corresponde.
	despues, err := f.cajaRepo.FindByID(context.Background(), caja.ID)
	require.NoError(t, err)
	assert.Equal(t, "2000", despues.SaldoActual.String())
}
