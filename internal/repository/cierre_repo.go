package repository

import (
	"context"

	"sinai/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CierreRepository interface {
	CreateTx(tx *gorm.DB, c *model.CierreCaja) error
	FindUltimoByCaja(ctx context.Context, cajaID uuid.UUID) (*model.CierreCaja, error)
	ListByCaja(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error)
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) CreateTx(tx *gorm.DB, c *model.CierreCaja) error {
	return tx.Create(c).Error
}

func (r *cierreRepo) FindUltimoByCaja(ctx context.Context, cajaID uuid.UUID) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).
		Where("caja_id = ?", cajaID).
		Order("fecha_cierre DESC").
		First(&c).Error
	return &c, err
}

func (r *cierreRepo) ListByCaja(ctx context.Context, cajaID uuid.UUID, page, limit int) ([]model.CierreCaja, int64, error) {
	var cierres []model.CierreCaja
	var total int64

	q := r.db.WithContext(ctx).Model(&model.CierreCaja{}).Where("caja_id = ?", cajaID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order("fecha_cierre DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&cierres).Error
	return cierres, total, err
}
