package repository

import (
	"github.com/jiyun-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RateRepository 运费价目数据访问接口
type RateRepository interface {
	ListAll() ([]models.ShippingRate, error)
	List(filter RateListFilter) ([]models.ShippingRate, int64, error)
	ListByCountryMethod(country, method string) ([]models.ShippingRate, error)
	ListCountries() ([]string, error)
	UpsertBatch(rates []models.ShippingRate) error
	CreateChangeLog(log *models.RateChangeLog) error
	ListChangeLogs(page, pageSize int) ([]models.RateChangeLog, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormRateRepository
}

// GormRateRepository GORM 价目仓储实现
type GormRateRepository struct {
	db *gorm.DB
}

// NewRateRepository 创建价目仓储
func NewRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// WithTx 绑定事务
func (r *GormRateRepository) WithTx(tx *gorm.DB) *GormRateRepository {
	if tx == nil {
		return r
	}
	return &GormRateRepository{db: tx}
}

// Transaction 开启事务
func (r *GormRateRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// ListAll 查询全部价目（对账 diff 用）
func (r *GormRateRepository) ListAll() ([]models.ShippingRate, error) {
	var rates []models.ShippingRate
	if err := r.db.Order("country ASC, shipping_method ASC, min_weight ASC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// List 分页查询价目
func (r *GormRateRepository) List(filter RateListFilter) ([]models.ShippingRate, int64, error) {
	query := r.db.Model(&models.ShippingRate{})
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
	}
	if filter.ShippingMethod != "" {
		query = query.Where("shipping_method = ?", filter.ShippingMethod)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rates []models.ShippingRate
	if err := query.Order("country ASC, shipping_method ASC, min_weight ASC").Find(&rates).Error; err != nil {
		return nil, 0, err
	}
	return rates, total, nil
}

// ListByCountryMethod 查询指定线路的重量阶梯
func (r *GormRateRepository) ListByCountryMethod(country, method string) ([]models.ShippingRate, error) {
	var rates []models.ShippingRate
	query := r.db.Where("country = ?", country)
	if method != "" {
		query = query.Where("shipping_method = ?", method)
	}
	if err := query.Order("min_weight ASC").Find(&rates).Error; err != nil {
		return nil, err
	}
	return rates, nil
}

// ListCountries 查询已配置价目的国家列表
func (r *GormRateRepository) ListCountries() ([]string, error) {
	var countries []string
	if err := r.db.Model(&models.ShippingRate{}).
		Distinct("country").
		Order("country ASC").
		Pluck("country", &countries).Error; err != nil {
		return nil, err
	}
	return countries, nil
}

// UpsertBatch 按自然键 (country, shipping_method, min_weight) 批量写入
func (r *GormRateRepository) UpsertBatch(rates []models.ShippingRate) error {
	if len(rates) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "country"},
			{Name: "shipping_method"},
			{Name: "min_weight"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"max_weight",
			"unit_price",
			"currency",
			"delivery_days",
			"updated_at",
		}),
	}).Create(&rates).Error
}

// CreateChangeLog 写入价目变更审计日志
func (r *GormRateRepository) CreateChangeLog(log *models.RateChangeLog) error {
	return r.db.Create(log).Error
}

// ListChangeLogs 分页查询变更审计日志
func (r *GormRateRepository) ListChangeLogs(page, pageSize int) ([]models.RateChangeLog, int64, error) {
	query := r.db.Model(&models.RateChangeLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, page, pageSize)

	var logs []models.RateChangeLog
	if err := query.Order("id DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
