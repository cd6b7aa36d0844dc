package repository

import (
	"context"

	"sinai/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CajaRepository interface {
	Create(ctx context.Context, c *model.Caja) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error)
	// FindByIDForUpdate locks the caja row for the duration of tx so that
	// concurrent balance writes serialize. With a nil tx (unit test mode)
	// it degrades to a plain read.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Caja, error)
	Update(ctx context.Context, c *model.Caja) error
	UpdateTx(tx *gorm.DB, c *model.Caja) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]model.Caja, error)

	CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error
	ListMovimientos(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.MovimientoCaja, int64, error)
	// SumMovimientos aggregates the FULL movement set of the caja.
	SumMovimientos(ctx context.Context, cajaID uuid.UUID) (ingresos, egresos decimal.Decimal, err error)
	CountMovimientos(ctx context.Context, cajaID uuid.UUID) (int64, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type cajaRepo struct{ db *gorm.DB }

func NewCajaRepository(db *gorm.DB) CajaRepository { return &cajaRepo{db: db} }

func (r *cajaRepo) DB() *gorm.DB { return r.db }

func (r *cajaRepo) Create(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *cajaRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Caja, error) {
	var c model.Caja
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *cajaRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.Caja, error) {
	db := r.db
	if tx != nil {
		db = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var c model.Caja
	err := db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *cajaRepo) Update(ctx context.Context, c *model.Caja) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *cajaRepo) UpdateTx(tx *gorm.DB, c *model.Caja) error {
	return tx.Save(c).Error
}

func (r *cajaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Caja{}, id).Error
}

func (r *cajaRepo) List(ctx context.Context) ([]model.Caja, error) {
	var cajas []model.Caja
	err := r.db.WithContext(ctx).Order("nombre ASC").Find(&cajas).Error
	return cajas, err
}

func (r *cajaRepo) CreateMovimientoTx(tx *gorm.DB, m *model.MovimientoCaja) error {
	return tx.Create(m).Error
}

func (r *cajaRepo) ListMovimientos(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.MovimientoCaja, int64, error) {
	var movs []model.MovimientoCaja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).Where("caja_id = ?", cajaID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("fecha DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&movs).Error
	return movs, total, err
}

func (r *cajaRepo) SumMovimientos(ctx context.Context, cajaID uuid.UUID) (decimal.Decimal, decimal.Decimal, error) {
	type row struct {
		Tipo  string
		Suma  decimal.Decimal
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&model.MovimientoCaja{}).
		Select("tipo, COALESCE(SUM(monto), 0) AS suma").
		Where("caja_id = ?", cajaID).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}

	ingresos, egresos := decimal.Zero, decimal.Zero
	for _, rw := range rows {
		switch rw.Tipo {
		case model.MovimientoIngreso:
			ingresos = rw.Suma
		case model.MovimientoEgreso:
			egresos = rw.Suma
		}
	}
	return ingresos, egresos, nil
}

func (r *cajaRepo) CountMovimientos(ctx context.Context, cajaID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.MovimientoCaja{}).Where("caja_id = ?", cajaID).Count(&n).Error
	return n, err
}
