package repository

import (
	"errors"

	"github.com/jiyun-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompensationRepository 待补偿记录数据访问接口
type CompensationRepository interface {
	Create(record *models.PendingCompensation) error
	GetByID(id uint) (*models.PendingCompensation, error)
	GetByIDForUpdate(id uint) (*models.PendingCompensation, error)
	Update(record *models.PendingCompensation) error
	ListPending(limit int) ([]models.PendingCompensation, error)
	List(filter CompensationListFilter) ([]models.PendingCompensation, int64, error)
	WithTx(tx *gorm.DB) *GormCompensationRepository
}

// GormCompensationRepository GORM 补偿仓储实现
type GormCompensationRepository struct {
	db *gorm.DB
}

// NewCompensationRepository 创建补偿仓储
func NewCompensationRepository(db *gorm.DB) *GormCompensationRepository {
	return &GormCompensationRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCompensationRepository) WithTx(tx *gorm.DB) *GormCompensationRepository {
	if tx == nil {
		return r
	}
	return &GormCompensationRepository{db: tx}
}

// Create 写入待补偿记录
func (r *GormCompensationRepository) Create(record *models.PendingCompensation) error {
	return r.db.Create(record).Error
}

// GetByID 按 ID 获取补偿记录
func (r *GormCompensationRepository) GetByID(id uint) (*models.PendingCompensation, error) {
	var record models.PendingCompensation
	if err := r.db.First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// GetByIDForUpdate 按 ID 加锁获取补偿记录（重试前持锁防止并发双发）
func (r *GormCompensationRepository) GetByIDForUpdate(id uint) (*models.PendingCompensation, error) {
	if id == 0 {
		return nil, nil
	}
	var record models.PendingCompensation
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Update 保存补偿记录
func (r *GormCompensationRepository) Update(record *models.PendingCompensation) error {
	return r.db.Save(record).Error
}

// ListPending 查询待重试的补偿记录
func (r *GormCompensationRepository) ListPending(limit int) ([]models.PendingCompensation, error) {
	if limit <= 0 {
		limit = 100
	}
	var records []models.PendingCompensation
	if err := r.db.Where("status = ?", "pending").
		Order("id asc").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// List 分页查询补偿记录
func (r *GormCompensationRepository) List(filter CompensationListFilter) ([]models.PendingCompensation, int64, error) {
	query := r.db.Model(&models.PendingCompensation{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var records []models.PendingCompensation
	if err := query.Order("id desc").Find(&records).Error; err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
