package repository

import (
	"context"

	"sinai/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlanPagoRepository interface {
	CreateTx(tx *gorm.DB, p *model.PlanPago) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.PlanPago, error)
	// FindByIDForUpdate locks the plan row and loads its pagos for the
	// coordinator's sequence. Nil tx degrades to a plain read.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PlanPago, error)
	FindByVentaID(ctx context.Context, ventaID uuid.UUID) (*model.PlanPago, error)
	UpdateTx(tx *gorm.DB, p *model.PlanPago) error

	FindPagoByID(ctx context.Context, id uuid.UUID) (*model.PagoPlanPago, error)
	CreatePagoTx(tx *gorm.DB, p *model.PagoPlanPago) error
	UpdatePagoTx(tx *gorm.DB, p *model.PagoPlanPago) error
	DeletePagoTx(tx *gorm.DB, id uuid.UUID) error
	CountPagosByCaja(ctx context.Context, cajaID uuid.UUID) (int64, error)

	DB() *gorm.DB
}

type planPagoRepo struct{ db *gorm.DB }

func NewPlanPagoRepository(db *gorm.DB) PlanPagoRepository { return &planPagoRepo{db: db} }

func (r *planPagoRepo) DB() *gorm.DB { return r.db }

func (r *planPagoRepo) CreateTx(tx *gorm.DB, p *model.PlanPago) error {
	return tx.Create(p).Error
}

func (r *planPagoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PlanPago, error) {
	var p model.PlanPago
	err := r.db.WithContext(ctx).Preload("Pagos").First(&p, id).Error
	return &p, err
}

func (r *planPagoRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.PlanPago, error) {
	db := r.db
	if tx != nil {
		db = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var p model.PlanPago
	if err := db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	// Pagos are loaded after the lock so the sum reflects the locked state.
	// (Preload cannot combine with FOR UPDATE on the joined rows.)
	src := r.db
	if tx != nil {
		src = tx
	}
	if err := src.WithContext(ctx).Where("plan_pago_id = ?", id).Find(&p.Pagos).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *planPagoRepo) FindByVentaID(ctx context.Context, ventaID uuid.UUID) (*model.PlanPago, error) {
	var p model.PlanPago
	err := r.db.WithContext(ctx).Preload("Pagos").Where("venta_id = ?", ventaID).First(&p).Error
	return &p, err
}

func (r *planPagoRepo) UpdateTx(tx *gorm.DB, p *model.PlanPago) error {
	return tx.Save(p).Error
}

func (r *planPagoRepo) FindPagoByID(ctx context.Context, id uuid.UUID) (*model.PagoPlanPago, error) {
	var p model.PagoPlanPago
	err := r.db.WithContext(ctx).First(&p, id).Error
	return &p, err
}

func (r *planPagoRepo) CreatePagoTx(tx *gorm.DB, p *model.PagoPlanPago) error {
	return tx.Create(p).Error
}

func (r *planPagoRepo) UpdatePagoTx(tx *gorm.DB, p *model.PagoPlanPago) error {
	return tx.Save(p).Error
}

func (r *planPagoRepo) DeletePagoTx(tx *gorm.DB, id uuid.UUID) error {
	res := tx.Delete(&model.PagoPlanPago{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *planPagoRepo) CountPagosByCaja(ctx context.Context, cajaID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.PagoPlanPago{}).Where("caja_id = ?", cajaID).Count(&n).Error
	return n, err
}
