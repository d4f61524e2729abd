package repository

import (
	"errors"

	"github.com/jiyun-go/internal/models"

	"gorm.io/gorm"
)

// BidRepository 出价数据访问接口
type BidRepository interface {
	Create(bid *models.Bid) error
	ListByProductID(productID uint) ([]models.Bid, error)
	GetHighestByProductID(productID uint) (*models.Bid, error)
	CountByProductID(productID uint) (int64, error)
	List(filter BidListFilter) ([]models.Bid, int64, error)
	WithTx(tx *gorm.DB) *GormBidRepository
}

// GormBidRepository GORM 出价仓储实现
type GormBidRepository struct {
	db *gorm.DB
}

// NewBidRepository 创建出价仓储
func NewBidRepository(db *gorm.DB) *GormBidRepository {
	return &GormBidRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBidRepository) WithTx(tx *gorm.DB) *GormBidRepository {
	if tx == nil {
		return r
	}
	return &GormBidRepository{db: tx}
}

// Create 写入出价（只增不改）
func (r *GormBidRepository) Create(bid *models.Bid) error {
	return r.db.Create(bid).Error
}

// ListByProductID 查询商品全部出价
// 排序即胜出规则：出价高者在前，同价先出价者在前。
func (r *GormBidRepository) ListByProductID(productID uint) ([]models.Bid, error) {
	if productID == 0 {
		return []models.Bid{}, nil
	}
	var bids []models.Bid
	if err := r.db.Where("product_id = ?", productID).
		Order("bid_points DESC, id ASC").
		Find(&bids).Error; err != nil {
		return nil, err
	}
	return bids, nil
}

// GetHighestByProductID 查询商品当前最高出价
func (r *GormBidRepository) GetHighestByProductID(productID uint) (*models.Bid, error) {
	if productID == 0 {
		return nil, nil
	}
	var bid models.Bid
	if err := r.db.Where("product_id = ?", productID).
		Order("bid_points DESC, id ASC").
		First(&bid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bid, nil
}

// CountByProductID 统计商品出价数量
func (r *GormBidRepository) CountByProductID(productID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.Bid{}).Where("product_id = ?", productID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List 分页查询出价记录
func (r *GormBidRepository) List(filter BidListFilter) ([]models.Bid, int64, error) {
	query := r.db.Model(&models.Bid{})
	if filter.ProductID != 0 {
		query = query.Where("product_id = ?", filter.ProductID)
	}
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var bids []models.Bid
	if err := query.Order("id desc").Find(&bids).Error; err != nil {
		return nil, 0, err
	}
	return bids, total, nil
}
