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
	"gorm.io/gorm"
)

func newPagoFixture() (*memCajaRepo, *memPlanRepo, PagoService) {
	cajaRepo := newMemCajaRepo()
	planRepo := newMemPlanRepo()
	svc := NewPagoService(planRepo, cajaRepo, infra.NewSaldoCache(nil, 0), nil, 5)
	return cajaRepo, planRepo, svc
}

func registrar(t *testing.T, svc PagoService, plan *model.PlanPago, caja *model.Caja, monto int64) *dto.PagoResponse {
	t.Helper()
	resp, err := svc.Registrar(context.Background(), nil, dto.RegistrarPagoRequest{
		PlanPagoID: plan.ID.String(),
		CajaID:     caja.ID.String(),
		Monto:      decimal.NewFromInt(monto),
		MetodoPago: "efectivo",
	})
	require.NoError(t, err)
	return resp
}

func TestRegistrarPagoActualizaCajaYPlan(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.NewFromInt(1000))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)

	resp := registrar(t, svc, plan, caja, 300)
	assert.Equal(t, "300", resp.Monto.String())

	// Caja gained the payment
	actualCaja, err := cajaRepo.FindByID(context.Background(), caja.ID)
	require.NoError(t, err)
	assert.Equal(t, "1300", actualCaja.SaldoActual.String())

	// The ingreso movement is linked to the pago
	movs, _, err := cajaRepo.ListMovimientos(context.Background(), caja.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoIngreso, movs[0].Tipo)
	require.NotNil(t, movs[0].PagoID)
	assert.Equal(t, resp.ID, movs[0].PagoID.String())

	// Plan figures: 200 inicial + 300 pago = 500 pagado, 500 pendiente
	actualPlan, err := planRepo.FindByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, "500", totalPagado(actualPlan).String())
	assert.Equal(t, "500", saldoPendiente(actualPlan).String())
}

func TestRegistrarPagoSobrepago(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	// total 1000, inicial 200, pago 700 → pendiente 100
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)
	registrar(t, svc, plan, caja, 700)

	saldoAntes, _ := cajaRepo.FindByID(context.Background(), caja.ID)

	_, err := svc.Registrar(context.Background(), nil, dto.RegistrarPagoRequest{
		PlanPagoID: plan.ID.String(),
		CajaID:     caja.ID.String(),
		Monto:      decimal.NewFromInt(150),
		MetodoPago: "efectivo",
	})

	require.Error(t, err)
	assert.Equal(t, apierror.KindOverpayment, apierror.KindOf(err))

	// Nothing moved: caja balance and movement count unchanged
	saldoDespues, _ := cajaRepo.FindByID(context.Background(), caja.ID)
	assert.Equal(t, saldoAntes.SaldoActual.String(), saldoDespues.SaldoActual.String())
	n, _ := cajaRepo.CountMovimientos(context.Background(), caja.ID)
	assert.EqualValues(t, 1, n)
}

func TestRegistrarPagoExactoCompletaPlan(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)

	registrar(t, svc, plan, caja, 800)

	actual, err := planRepo.FindByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PlanPagado, actual.Estado)
	assert.True(t, saldoPendiente(actual).IsZero())
}

func TestRegistrarPagoCajaCerrada(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := &model.Caja{ID: uuid.New(), Nombre: "Caja", Estado: model.CajaCerrada}
	require.NoError(t, cajaRepo.Create(context.Background(), caja))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)

	_, err := svc.Registrar(context.Background(), nil, dto.RegistrarPagoRequest{
		PlanPagoID: plan.ID.String(),
		CajaID:     caja.ID.String(),
		Monto:      decimal.NewFromInt(100),
		MetodoPago: "efectivo",
	})

	require.Error(t, err)
	assert.Equal(t, apierror.KindClosedBox, apierror.KindOf(err))
}

func TestRegistrarPagoMontoNoPositivo(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)

	_, err := svc.Registrar(context.Background(), nil, dto.RegistrarPagoRequest{
		PlanPagoID: plan.ID.String(),
		CajaID:     caja.ID.String(),
		Monto:      decimal.NewFromInt(-50),
		MetodoPago: "efectivo",
	})

	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestActualizarPagoDeltaEnMismaCaja(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)
	pago := registrar(t, svc, plan, caja, 300)

	nuevo := decimal.NewFromInt(250)
	pagoID := uuid.MustParse(pago.ID)
	resp, err := svc.Actualizar(context.Background(), pagoID, nil, dto.ActualizarPagoRequest{
		Monto: &nuevo,
	})
	require.NoError(t, err)
	assert.Equal(t, "250", resp.Monto.String())

	// 300 ingreso, luego 50 egreso compensatorio → saldo 250
	actualCaja, _ := cajaRepo.FindByID(context.Background(), caja.ID)
	assert.Equal(t, "250", actualCaja.SaldoActual.String())

	movs, _, _ := cajaRepo.ListMovimientos(context.Background(), caja.ID, 1, 10)
	require.Len(t, movs, 2)
	assert.Equal(t, model.MovimientoEgreso, movs[1].Tipo)
	assert.Equal(t, "50", movs[1].Monto.String())

	actualPlan, _ := planRepo.FindByID(context.Background(), plan.ID)
	assert.Equal(t, "450", totalPagado(actualPlan).String())
}

func TestActualizarPagoCambioDeCaja(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	cajaA := cajaAbierta(cajaRepo, decimal.Zero)
	cajaB := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)
	pago := registrar(t, svc, plan, cajaA, 400)

	nuevaCaja := cajaB.ID.String()
	resp, err := svc.Actualizar(context.Background(), uuid.MustParse(pago.ID), nil, dto.ActualizarPagoRequest{
		CajaID: &nuevaCaja,
	})
	require.NoError(t, err)
	assert.Equal(t, cajaB.ID.String(), resp.CajaID)

	// Caja A: 400 ingreso + 400 egreso de reversión = 0
	actualA, _ := cajaRepo.FindByID(context.Background(), cajaA.ID)
	assert.True(t, actualA.SaldoActual.IsZero())

	// Caja B recibió el monto completo
	actualB, _ := cajaRepo.FindByID(context.Background(), cajaB.ID)
	assert.Equal(t, "400", actualB.SaldoActual.String())
}

func TestActualizarPagoSobrepagoExcluyeAporteAnterior(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	// total 1000, inicial 200 → margen 800; pagos de 500 y 200
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)
	pago := registrar(t, svc, plan, caja, 500)
	registrar(t, svc, plan, caja, 200)

	// Subir el primero a 600 queda dentro del margen (600+200 = 800)
	nuevo := decimal.NewFromInt(600)
	_, err := svc.Actualizar(context.Background(), uuid.MustParse(pago.ID), nil, dto.ActualizarPagoRequest{
		Monto: &nuevo,
	})
	require.NoError(t, err)

	// Subirlo a 700 excede (700+200 > 800)
	exceso := decimal.NewFromInt(700)
	_, err = svc.Actualizar(context.Background(), uuid.MustParse(pago.ID), nil, dto.ActualizarPagoRequest{
		Monto: &exceso,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindOverpayment, apierror.KindOf(err))
}

func TestEliminarPagoRestauraSaldo(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.NewFromInt(100))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)
	pago := registrar(t, svc, plan, caja, 400)

	require.NoError(t, svc.Eliminar(context.Background(), uuid.MustParse(pago.ID), nil))

	// Saldo vuelve al punto de partida vía egreso compensatorio
	actualCaja, _ := cajaRepo.FindByID(context.Background(), caja.ID)
	assert.Equal(t, "100", actualCaja.SaldoActual.String())

	// El ledger conserva ambos movimientos
	n, _ := cajaRepo.CountMovimientos(context.Background(), caja.ID)
	assert.EqualValues(t, 2, n)

	// El pago desapareció del plan
	actualPlan, _ := planRepo.FindByID(context.Background(), plan.ID)
	assert.Empty(t, actualPlan.Pagos)
	assert.Equal(t, "1000", saldoPendiente(actualPlan).String())
}

func TestEliminarPagoConCajaCerrada(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)
	pago := registrar(t, svc, plan, caja, 400)

	caja.Estado = model.CajaCerrada
	require.NoError(t, cajaRepo.Update(context.Background(), caja))

	err := svc.Eliminar(context.Background(), uuid.MustParse(pago.ID), nil)
	require.Error(t, err)
	assert.Equal(t, apierror.KindClosedBox, apierror.KindOf(err))
}

func TestEliminarPagoReviertePlanPagado(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(500), decimal.Zero, 5)
	pago := registrar(t, svc, plan, caja, 500)

	actual, _ := planRepo.FindByID(context.Background(), plan.ID)
	require.Equal(t, model.PlanPagado, actual.Estado)

	require.NoError(t, svc.Eliminar(context.Background(), uuid.MustParse(pago.ID), nil))

	actual, _ = planRepo.FindByID(context.Background(), plan.ID)
	assert.Equal(t, model.PlanActivo, actual.Estado)
}

func TestActualizarMontoInicial(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)

	resp, err := svc.ActualizarMontoInicial(context.Background(), plan.VentaID, nil, dto.ActualizarMontoInicialRequest{
		MontoInicial: decimal.NewFromInt(300),
		CajaID:       caja.ID.String(),
	})
	require.NoError(t, err)
	assert.Equal(t, "300", resp.MontoInicial.String())
	assert.Equal(t, "700", resp.SaldoPendiente.String())

	// El delta de 100 ingresó a la caja
	actualCaja, _ := cajaRepo.FindByID(context.Background(), caja.ID)
	assert.Equal(t, "100", actualCaja.SaldoActual.String())
}

func TestActualizarMontoInicialSobrepago(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.Zero)
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.NewFromInt(200), 8)
	registrar(t, svc, plan, caja, 700)

	// 400 inicial + 700 pagos > 1000 total
	_, err := svc.ActualizarMontoInicial(context.Background(), plan.VentaID, nil, dto.ActualizarMontoInicialRequest{
		MontoInicial: decimal.NewFromInt(400),
		CajaID:       caja.ID.String(),
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindOverpayment, apierror.KindOf(err))
}

func TestRegistrarPagoMontoConFraccionDeCentavo(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.NewFromInt(100))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)

	// numeric(12,2) redondearía 0.001 a cero; se rechaza antes de persistir.
	_, err := svc.Registrar(context.Background(), nil, dto.RegistrarPagoRequest{
		PlanPagoID: plan.ID.String(),
		CajaID:     caja.ID.String(),
		Monto:      decimal.NewFromFloat(0.001),
		MetodoPago: "efectivo",
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))

	despues, err := cajaRepo.FindByID(context.Background(), caja.ID)
	require.NoError(t, err)
	assert.True(t, despues.SaldoActual.Equal(decimal.NewFromInt(100)))
}

func TestActualizarPagoMontoConFraccionDeCentavo(t *testing.T) {
	cajaRepo, planRepo, svc := newPagoFixture()
	caja := cajaAbierta(cajaRepo, decimal.NewFromInt(100))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)
	pago := registrar(t, svc, plan, caja, 300)

	subCentavo := decimal.NewFromFloat(299.999)
	_, err := svc.Actualizar(context.Background(), uuid.MustParse(pago.ID), nil, dto.ActualizarPagoRequest{
		Monto: &subCentavo,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

// planRepoConBorradoRival reproduce al rival que gana la carrera de borrado:
// mientras esta llamada espera el lock del plan, el pago desaparece.
type planRepoConBorradoRival struct {
	*memPlanRepo
	pagoID uuid.UUID
}

func (r *planRepoConBorradoRival) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PlanPago, error) {
	delete(r.pagos, r.pagoID)
	return r.memPlanRepo.FindByIDForUpdate(ctx, tx, id)
}

func TestEliminarPagoBorradoPorOtraSesion(t *testing.T) {
	cajaRepo := newMemCajaRepo()
	planRepo := newMemPlanRepo()
	caja := cajaAbierta(cajaRepo, decimal.NewFromInt(100))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)

	svc := NewPagoService(planRepo, cajaRepo, infra.NewSaldoCache(nil, 0), nil, 5)
	pago := registrar(t, svc, plan, caja, 400)
	pagoID := uuid.MustParse(pago.ID)

	rival := &planRepoConBorradoRival{memPlanRepo: planRepo, pagoID: pagoID}
	svcRival := NewPagoService(rival, cajaRepo, infra.NewSaldoCache(nil, 0), nil, 5)

	err := svcRival.Eliminar(context.Background(), pagoID, nil)
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	// Sin pago no hay reversión: ni el saldo ni el ledger se tocan.
	despues, err := cajaRepo.FindByID(context.Background(), caja.ID)
	require.NoError(t, err)
	assert.True(t, despues.SaldoActual.Equal(decimal.NewFromInt(500)))
	movs, _, err := cajaRepo.ListMovimientos(context.Background(), caja.ID, 1, 50)
	require.NoError(t, err)
	assert.Len(t, movs, 1)
}

func TestActualizarPagoBorradoPorOtraSesion(t *testing.T) {
	cajaRepo := newMemCajaRepo()
	planRepo := newMemPlanRepo()
	caja := cajaAbierta(cajaRepo, decimal.NewFromInt(100))
	plan := planActivo(planRepo, decimal.NewFromInt(1000), decimal.Zero, 10)

	svc := NewPagoService(planRepo, cajaRepo, infra.NewSaldoCache(nil, 0), nil, 5)
	pago := registrar(t, svc, plan, caja, 400)
	pagoID := uuid.MustParse(pago.ID)

	rival := &planRepoConBorradoRival{memPlanRepo: planRepo, pagoID: pagoID}
	svcRival := NewPagoService(rival, cajaRepo, infra.NewSaldoCache(nil, 0), nil, 5)

	nuevo := decimal.NewFromInt(250)
	_, err := svcRival.Actualizar(context.Background(), pagoID, nil, dto.ActualizarPagoRequest{
		Monto: &nuevo,
	})
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))

	despues, err := cajaRepo.FindByID(context.Background(), caja.ID)
	require.NoError(t, err)
	assert.True(t, despues.SaldoActual.Equal(decimal.NewFromInt(500)))
}
