package service

// In-memory repository implementations shared by the service tests. They
// mirror the SQL repos' behavior closely enough for the services to run
// without a database: nil-DB mode makes runTx call the function directly.

import (
	"context"
	"errors"
	"time"

	"sinai/internal/dto"
	"sinai/internal/model"
	"sinai/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var errNotFound = errors.New("not found")

// ── CajaRepository ───────────────────────────────────────────────────────────

type memCajaRepo struct {
	cajas       map[uuid.UUID]*model.Caja
	movimientos []model.MovimientoCaja
}

func newMemCajaRepo() *memCajaRepo {
	return &memCajaRepo{cajas: make(map[uuid.UUID]*model.Caja)}
}

func (r *memCajaRepo) DB() *gorm.DB { return nil }

func (r *memCajaRepo) Create(_ context.Context, c *model.Caja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now()
	cp := *c
	r.cajas[c.ID] = &cp
	return nil
}

func (r *memCajaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Caja, error) {
	c, ok := r.cajas[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *memCajaRepo) FindByIDForUpdate(ctx context.Context, _ *gorm.DB, id uuid.UUID) (*model.Caja, error) {
	return r.FindByID(ctx, id)
}

func (r *memCajaRepo) Update(_ context.Context, c *model.Caja) error {
	cp := *c
	r.cajas[c.ID] = &cp
	return nil
}

func (r *memCajaRepo) UpdateTx(_ *gorm.DB, c *model.Caja) error {
	cp := *c
	r.cajas[c.ID] = &cp
	return nil
}

func (r *memCajaRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.cajas, id)
	return nil
}

func (r *memCajaRepo) List(_ context.Context) ([]model.Caja, error) {
	out := make([]model.Caja, 0, len(r.cajas))
	for _, c := range r.cajas {
		out = append(out, *c)
	}
	return out, nil
}

func (r *memCajaRepo) CreateMovimientoTx(_ *gorm.DB, m *model.MovimientoCaja) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movimientos = append(r.movimientos, *m)
	return nil
}

func (r *memCajaRepo) ListMovimientos(_ context.Context, cajaID uuid.UUID, page, limit int) ([]model.MovimientoCaja, int64, error) {
	var all []model.MovimientoCaja
	for _, m := range r.movimientos {
		if m.CajaID == cajaID {
			all = append(all, m)
		}
	}
	total := int64(len(all))
	start := (page - 1) * limit
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *memCajaRepo) SumMovimientos(_ context.Context, cajaID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, m := range r.movimientos {
		if m.CajaID != cajaID {
			continue
		}
		if m.Tipo == model.MovimientoIngreso {
			ingresos = ingresos.Add(m.Monto)
		} else {
			egresos = egresos.Add(m.Monto)
		}
	}
	return ingresos, egresos, nil
}

func (r *memCajaRepo) CountMovimientos(_ context.Context, cajaID uuid.UUID) (int64, error) {
	var n int64
	for _, m := range r.movimientos {
		if m.CajaID == cajaID {
			n++
		}
	}
	return n, nil
}

var _ repository.CajaRepository = (*memCajaRepo)(nil)

// ── PlanPagoRepository ───────────────────────────────────────────────────────

type memPlanRepo struct {
	planes map[uuid.UUID]*model.PlanPago
	pagos  map[uuid.UUID]*model.PagoPlanPago
}

func newMemPlanRepo() *memPlanRepo {
	return &memPlanRepo{
		planes: make(map[uuid.UUID]*model.PlanPago),
		pagos:  make(map[uuid.UUID]*model.PagoPlanPago),
	}
}

func (r *memPlanRepo) DB() *gorm.DB { return nil }

func (r *memPlanRepo) CreateTx(_ *gorm.DB, p *model.PlanPago) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	cp.Pagos = nil
	r.planes[p.ID] = &cp
	return nil
}

func (r *memPlanRepo) loadPlan(id uuid.UUID) (*model.PlanPago, error) {
	p, ok := r.planes[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	cp.Pagos = nil
	for _, pago := range r.pagos {
		if pago.PlanPagoID == id {
			cp.Pagos = append(cp.Pagos, *pago)
		}
	}
	return &cp, nil
}

func (r *memPlanRepo) FindByID(_ context.Context, id uuid.UUID) (*model.PlanPago, error) {
	return r.loadPlan(id)
}

func (r *memPlanRepo) FindByIDForUpdate(_ context.Context, _ *gorm.DB, id uuid.UUID) (*model.PlanPago, error) {
	return r.loadPlan(id)
}

func (r *memPlanRepo) FindByVentaID(_ context.Context, ventaID uuid.UUID) (*model.PlanPago, error) {
	for id, p := range r.planes {
		if p.VentaID == ventaID {
			return r.loadPlan(id)
		}
	}
	return nil, errNotFound
}

func (r *memPlanRepo) UpdateTx(_ *gorm.DB, p *model.PlanPago) error {
	cp := *p
	cp.Pagos = nil
	r.planes[p.ID] = &cp
	return nil
}

func (r *memPlanRepo) FindPagoByID(_ context.Context, id uuid.UUID) (*model.PagoPlanPago, error) {
	p, ok := r.pagos[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPlanRepo) CreatePagoTx(_ *gorm.DB, p *model.PagoPlanPago) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	cp := *p
	r.pagos[p.ID] = &cp
	return nil
}

func (r *memPlanRepo) UpdatePagoTx(_ *gorm.DB, p *model.PagoPlanPago) error {
	cp := *p
	r.pagos[p.ID] = &cp
	return nil
}

func (r *memPlanRepo) DeletePagoTx(_ *gorm.DB, id uuid.UUID) error {
	if _, ok := r.pagos[id]; !ok {
		return errNotFound
	}
	delete(r.pagos, id)
	return nil
}

func (r *memPlanRepo) CountPagosByCaja(_ context.Context, cajaID uuid.UUID) (int64, error) {
	var n int64
	for _, p := range r.pagos {
		if p.CajaID == cajaID {
			n++
		}
	}
	return n, nil
}

var _ repository.PlanPagoRepository = (*memPlanRepo)(nil)

// ── CierreRepository ─────────────────────────────────────────────────────────

type memCierreRepo struct {
	cierres []model.CierreCaja
}

func newMemCierreRepo() *memCierreRepo { return &memCierreRepo{} }

func (r *memCierreRepo) CreateTx(_ *gorm.DB, c *model.CierreCaja) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.cierres = append(r.cierres, *c)
	return nil
}

func (r *memCierreRepo) FindUltimoByCaja(_ context.Context, cajaID uuid.UUID) (*model.CierreCaja, error) {
	var last *model.CierreCaja
	for i := range r.cierres {
		c := &r.cierres[i]
		if c.CajaID != cajaID {
			continue
		}
		if last == nil || c.FechaCierre.After(last.FechaCierre) {
			last = c
		}
	}
	if last == nil {
		return nil, errNotFound
	}
	cp := *last
	return &cp, nil
}

func (r *memCierreRepo) ListByCaja(_ context.Context, cajaID uuid.UUID, _, _ int) ([]model.CierreCaja, int64, error) {
	var out []model.CierreCaja
	for _, c := range r.cierres {
		if c.CajaID == cajaID {
			out = append(out, c)
		}
	}
	return out, int64(len(out)), nil
}

var _ repository.CierreRepository = (*memCierreRepo)(nil)

// ── VentaRepository ──────────────────────────────────────────────────────────

type memVentaRepo struct {
	ventas map[uuid.UUID]*model.Venta
	planes *memPlanRepo
}

func newMemVentaRepo(planes *memPlanRepo) *memVentaRepo {
	return &memVentaRepo{ventas: make(map[uuid.UUID]*model.Venta), planes: planes}
}

func (r *memVentaRepo) DB() *gorm.DB { return nil }

func (r *memVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()
	cp := *v
	cp.PlanPago = nil
	r.ventas[v.ID] = &cp
	return nil
}

func (r *memVentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *v
	if plan, err := r.planes.FindByVentaID(context.Background(), id); err == nil {
		cp.PlanPago = plan
	}
	return &cp, nil
}

func (r *memVentaRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	v, ok := r.ventas[id]
	if !ok {
		return errNotFound
	}
	v.Estado = estado
	return nil
}

func (r *memVentaRepo) List(_ context.Context, filter dto.VentaFilter) ([]model.Venta, int64, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if filter.Estado != "" && filter.Estado != "all" && v.Estado != filter.Estado {
			continue
		}
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

var _ repository.VentaRepository = (*memVentaRepo)(nil)

// ── LoteRepository ───────────────────────────────────────────────────────────

type memLoteRepo struct {
	lotes map[uuid.UUID]*model.Lote
}

func newMemLoteRepo() *memLoteRepo { return &memLoteRepo{lotes: make(map[uuid.UUID]*model.Lote)} }

func (r *memLoteRepo) DB() *gorm.DB { return nil }

func (r *memLoteRepo) Create(_ context.Context, l *model.Lote) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	cp := *l
	r.lotes[l.ID] = &cp
	return nil
}

func (r *memLoteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Lote, error) {
	l, ok := r.lotes[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *memLoteRepo) UpdateEstadoTx(_ *gorm.DB, id uuid.UUID, estado string) error {
	l, ok := r.lotes[id]
	if !ok {
		return errNotFound
	}
	l.Estado = estado
	return nil
}

func (r *memLoteRepo) List(_ context.Context) ([]model.Lote, error) {
	out := make([]model.Lote, 0, len(r.lotes))
	for _, l := range r.lotes {
		out = append(out, *l)
	}
	return out, nil
}

var _ repository.LoteRepository = (*memLoteRepo)(nil)

// ── Builders ─────────────────────────────────────────────────────────────────

func cajaAbierta(repo *memCajaRepo, saldo decimal.Decimal) *model.Caja {
	caja := &model.Caja{
		ID:           uuid.New(),
		Nombre:       "Caja Principal",
		MontoInicial: saldo,
		SaldoActual:  saldo,
		Estado:       model.CajaAbierta,
	}
	_ = repo.Create(context.Background(), caja)
	return caja
}

func planActivo(repo *memPlanRepo, total, inicial decimal.Decimal, plazo int) *model.PlanPago {
	plan := &model.PlanPago{
		ID:               uuid.New(),
		VentaID:          uuid.New(),
		Total:            total,
		MontoInicial:     inicial,
		Plazo:            plazo,
		Periodicidad:     model.PeriodicidadMensual,
		FechaInicio:      time.Now(),
		FechaVencimiento: time.Now().AddDate(0, plazo, 0),
		Estado:           model.PlanActivo,
	}
	_ = repo.CreateTx(nil, plan)
	return plan
}
