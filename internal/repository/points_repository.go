package repository

import (
	"gorm.io/gorm"

	"github.com/jiyun-go/internal/models"
)

// PointsRepository 积分流水数据访问接口
type PointsRepository interface {
	CreateHistory(entry *models.PointsHistory) error
	ListHistories(filter PointsHistoryListFilter) ([]models.PointsHistory, int64, error)
	SumByUserID(userID uint) (int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormPointsRepository
}

// GormPointsRepository GORM 积分仓储实现
type GormPointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository 创建积分仓储
func NewPointsRepository(db *gorm.DB) *GormPointsRepository {
	return &GormPointsRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPointsRepository) WithTx(tx *gorm.DB) *GormPointsRepository {
	if tx == nil {
		return r
	}
	return &GormPointsRepository{db: tx}
}

// Transaction 开启事务
func (r *GormPointsRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// CreateHistory 写入积分流水（只增不改）
func (r *GormPointsRepository) CreateHistory(entry *models.PointsHistory) error {
	return r.db.Create(entry).Error
}

// ListHistories 分页查询积分流水
func (r *GormPointsRepository) ListHistories(filter PointsHistoryListFilter) ([]models.PointsHistory, int64, error) {
	query := r.db.Model(&models.PointsHistory{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Reason != "" {
		query = query.Where("reason = ?", filter.Reason)
	}
	if filter.RefID != 0 {
		query = query.Where("ref_id = ?", filter.RefID)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var entries []models.PointsHistory
	if err := query.Order("id desc").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// SumByUserID 按用户汇总流水（对账：余额应等于流水和）
func (r *GormPointsRepository) SumByUserID(userID uint) (int64, error) {
	var sum *int64
	if err := r.db.Model(&models.PointsHistory{}).
		Where("user_id = ?", userID).
		Select("SUM(amount)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	if sum == nil {
		return 0, nil
	}
	return *sum, nil
}
