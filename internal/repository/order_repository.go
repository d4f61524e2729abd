package repository

import (
	"errors"
	"strings"

	"github.com/jiyun-go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByTrackingNo(trackingNo string) (*models.Order, error)
	Update(order *models.Order) error
	UpdateFields(id uint, updates map[string]interface{}) error
	UpdateFieldsGuarded(id uint, conds map[string]interface{}, updates map[string]interface{}) (int64, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	CreateTrackingLog(log *models.TrackingLog) error
	ListTrackingLogs(orderID uint) ([]models.TrackingLog, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 订单仓储实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction 开启事务
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 按 ID 获取订单
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate 按 ID 加锁获取订单（状态流转前必须持有行锁）
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	if id == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo 按订单编号获取订单
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	orderNo = strings.TrimSpace(orderNo)
	if orderNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTrackingNo 按物流单号获取订单（公开查询入口）
func (r *GormOrderRepository) GetByTrackingNo(trackingNo string) (*models.Order, error) {
	trackingNo = strings.TrimSpace(trackingNo)
	if trackingNo == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("tracking_no = ?", trackingNo).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// Update 保存订单
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields 按 ID 更新指定字段
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// UpdateFieldsGuarded 带条件的单语句更新，返回影响行数。
// 取消协商等并发敏感的字段流转依赖该守卫更新，而不是读改写两步。
func (r *GormOrderRepository) UpdateFieldsGuarded(id uint, conds map[string]interface{}, updates map[string]interface{}) (int64, error) {
	query := r.db.Model(&models.Order{}).Where("id = ?", id)
	for field, value := range conds {
		query = query.Where(field+" = ?", value)
	}
	result := query.Updates(updates)
	return result.RowsAffected, result.Error
}

// List 分页查询订单
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderType != "" {
		query = query.Where("order_type = ?", filter.OrderType)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no LIKE ?", "%"+filter.OrderNo+"%")
	}
	if filter.TrackingNo != "" {
		query = query.Where("tracking_no LIKE ?", "%"+filter.TrackingNo+"%")
	}
	if filter.Country != "" {
		query = query.Where("country = ?", filter.Country)
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

	var orders []models.Order
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// CreateTrackingLog 写入物流轨迹（只增不改）
func (r *GormOrderRepository) CreateTrackingLog(log *models.TrackingLog) error {
	return r.db.Create(log).Error
}

// ListTrackingLogs 查询订单物流轨迹
func (r *GormOrderRepository) ListTrackingLogs(orderID uint) ([]models.TrackingLog, error) {
	if orderID == 0 {
		return []models.TrackingLog{}, nil
	}
	var logs []models.TrackingLog
	if err := r.db.Where("order_id = ?", orderID).Order("id asc").Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
