package service

import (
	"strings"
	"time"

	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/queue"
	"github.com/jiyun-go/internal/repository"
)

// ProductService 商城商品管理服务
type ProductService struct {
	productRepo repository.ProductRepository
	bidRepo     repository.BidRepository
	queueClient *queue.Client
}

// ProductInput 商品创建/更新输入
type ProductInput struct {
	Name             string
	Description      string
	ImageURL         string
	Category         string
	PointsRequired   int64
	DirectBuyPoints  *int64
	FixedShippingFee models.Money
	Stock            int
	IsAuction        bool
	EndTime          *time.Time
	IsActive         bool
	SortOrder        int
}

// ProductDetail 商品详情（竞拍商品附带出价信息）
type ProductDetail struct {
	models.Product
	BidCount   int64       `json:"bid_count"`
	HighestBid *models.Bid `json:"highest_bid,omitempty"`
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	bidRepo repository.BidRepository,
	queueClient *queue.Client,
) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		bidRepo:     bidRepo,
		queueClient: queueClient,
	}
}

// CreateProduct 创建商品，竞拍商品按截止时间预约结拍任务
func (s *ProductService) CreateProduct(input ProductInput) (*models.Product, error) {
	product := &models.Product{
		Name:             strings.TrimSpace(input.Name),
		Description:      input.Description,
		ImageURL:         strings.TrimSpace(input.ImageURL),
		Category:         strings.TrimSpace(input.Category),
		PointsRequired:   input.PointsRequired,
		DirectBuyPoints:  input.DirectBuyPoints,
		FixedShippingFee: input.FixedShippingFee,
		Stock:            input.Stock,
		IsAuction:        input.IsAuction,
		EndTime:          input.EndTime,
		IsActive:         input.IsActive,
		SortOrder:        input.SortOrder,
	}
	if err := s.productRepo.Create(product); err != nil {
		return nil, err
	}
	s.scheduleSettle(product)
	return product, nil
}

// UpdateProduct 更新商品，已结拍商品不可再改竞拍属性
func (s *ProductService) UpdateProduct(id uint, input ProductInput) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	endTimeChanged := false
	if product.SettledAt == nil {
		if !equalTimePtr(product.EndTime, input.EndTime) {
			endTimeChanged = true
		}
		product.IsAuction = input.IsAuction
		product.EndTime = input.EndTime
		product.PointsRequired = input.PointsRequired
		product.DirectBuyPoints = input.DirectBuyPoints
	}
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.ImageURL = strings.TrimSpace(input.ImageURL)
	product.Category = strings.TrimSpace(input.Category)
	product.FixedShippingFee = input.FixedShippingFee
	product.Stock = input.Stock
	product.IsActive = input.IsActive
	product.SortOrder = input.SortOrder

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	if endTimeChanged {
		s.scheduleSettle(product)
	}
	return product, nil
}

// DeleteProduct 下架并软删除商品
func (s *ProductService) DeleteProduct(id uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	return s.productRepo.Delete(id)
}

// GetProductDetail 商品详情，竞拍商品带出价数与当前最高价
func (s *ProductService) GetProductDetail(id uint) (*ProductDetail, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	detail := &ProductDetail{Product: *product}
	if product.IsAuction {
		count, err := s.bidRepo.CountByProductID(id)
		if err != nil {
			return nil, err
		}
		detail.BidCount = count
		highest, err := s.bidRepo.GetHighestByProductID(id)
		if err != nil {
			return nil, err
		}
		detail.HighestBid = highest
	}
	return detail, nil
}

// ListProducts 分页查询商品
func (s *ProductService) ListProducts(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// scheduleSettle 按截止时间预约结拍；队列未启用时依赖管理员手工结拍
func (s *ProductService) scheduleSettle(product *models.Product) {
	if product == nil || !product.IsAuction || product.EndTime == nil {
		return
	}
	if err := s.queueClient.EnqueueAuctionSettleAt(
		queue.AuctionSettlePayload{ProductID: product.ID},
		*product.EndTime,
	); err != nil {
		logger.Errorw("auction_settle_enqueue_failed",
			"product_id", product.ID,
			"end_time", product.EndTime,
			"error", err,
		)
	}
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
