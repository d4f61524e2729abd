package service

import (
	"fmt"
	"time"

	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"gorm.io/gorm"
)

// AuctionService 积分商城竞拍与兑换服务
type AuctionService struct {
	productRepo repository.ProductRepository
	bidRepo     repository.BidRepository
	orderRepo   repository.OrderRepository
	pointsSvc   *PointsService
}

// NewAuctionService 创建竞拍服务
func NewAuctionService(
	productRepo repository.ProductRepository,
	bidRepo repository.BidRepository,
	orderRepo repository.OrderRepository,
	pointsSvc *PointsService,
) *AuctionService {
	return &AuctionService{
		productRepo: productRepo,
		bidRepo:     bidRepo,
		orderRepo:   orderRepo,
		pointsSvc:   pointsSvc,
	}
}

// PlaceBid 出价
// 出价即扣分：先扣积分再落出价记录，落记录失败时走补偿返还。
// 最高价校验不持锁，并发下允许出现同额出价，胜负在结拍时按先出价者裁定。
func (s *AuctionService) PlaceBid(userID, productID uint, bidPoints int64) (*models.Bid, error) {
	if bidPoints <= 0 {
		return nil, ErrPointsInvalidAmount
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if product == nil || !product.IsActive {
		return nil, ErrProductNotFound
	}
	if !product.IsAuction {
		return nil, ErrProductNotAuction
	}
	if product.SettledAt != nil {
		return nil, ErrAuctionEnded
	}
	if product.EndTime != nil && !time.Now().Before(*product.EndTime) {
		return nil, ErrAuctionEnded
	}
	if bidPoints < product.PointsRequired {
		return nil, ErrBidTooLow
	}
	highest, err := s.bidRepo.GetHighestByProductID(productID)
	if err != nil {
		return nil, err
	}
	if highest != nil && bidPoints <= highest.BidPoints {
		return nil, ErrBidTooLow
	}

	refID := productID
	deductInput := PointsChangeInput{
		UserID: userID,
		Amount: bidPoints,
		Reason: constants.PointsReasonAuctionBid,
		RefID:  &refID,
		Remark: fmt.Sprintf("竞拍出价：%s", product.Name),
	}
	if _, err := s.pointsSvc.Deduct(deductInput); err != nil {
		return nil, err
	}

	bid := &models.Bid{
		ProductID: productID,
		UserID:    userID,
		BidPoints: bidPoints,
	}
	if err := s.bidRepo.Create(bid); err != nil {
		s.pointsSvc.RefundWithFallback(PointsChangeInput{
			UserID: userID,
			Amount: bidPoints,
			Reason: constants.PointsReasonAuctionRefund,
			RefID:  &refID,
			Remark: fmt.Sprintf("出价失败返还：%s", product.Name),
		})
		return nil, err
	}
	return bid, nil
}

// ListBids 查询商品出价记录（高价在前，同价先出价者在前）
func (s *AuctionService) ListBids(productID uint) ([]models.Bid, error) {
	return s.bidRepo.ListByProductID(productID)
}

// Exchange 一口价直接兑换
// 锁商品行、扣积分、减库存、建商城订单在同一事务内提交。
func (s *AuctionService) Exchange(userID, productID uint) (*models.Order, error) {
	var order *models.Order
	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.WithTx(tx).GetByIDForUpdate(productID)
		if err != nil {
			return err
		}
		if product == nil || !product.IsActive {
			return ErrProductNotFound
		}
		cost, ok := exchangeCost(product)
		if !ok {
			return ErrProductNotExchangeable
		}
		if product.SettledAt != nil {
			return ErrProductNotExchangeable
		}
		if product.Stock <= 0 {
			return ErrProductOutOfStock
		}

		refID := productID
		if _, err := s.pointsSvc.DeductInTx(tx, PointsChangeInput{
			UserID: userID,
			Amount: cost,
			Reason: constants.PointsReasonAuctionExchange,
			RefID:  &refID,
			Remark: fmt.Sprintf("积分兑换：%s", product.Name),
		}); err != nil {
			return err
		}

		if err := tx.Model(&models.Product{}).Where("id = ?", product.ID).
			Update("stock", gorm.Expr("stock - ?", 1)).Error; err != nil {
			return err
		}

		order, err = s.createMarketOrderInTx(tx, userID, product, fmt.Sprintf("积分兑换商品：%s", product.Name))
		return err
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// SettleAuction 结拍
// 最高出价者胜出，同额出价先到者胜。败者逐笔原额返还积分，
// 胜者生成待支付运费的商城订单。settled_at 是一次性闸门，重复调用直接拒绝。
// 流拍同样写入 settled_at 封闭竞拍，随后返回 ErrAuctionNoBids：
// 调用方收到该错误时竞拍已封闭，它标记的是"无成交"而非执行失败。
// force 为 true 时允许在截止时间前提前结拍（管理员手工操作）。
func (s *AuctionService) SettleAuction(productID uint, force bool) (*models.Order, error) {
	var (
		order  *models.Order
		noBids bool
	)
	err := s.productRepo.Transaction(func(tx *gorm.DB) error {
		product, err := s.productRepo.WithTx(tx).GetByIDForUpdate(productID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if !product.IsAuction {
			return ErrProductNotAuction
		}
		if product.SettledAt != nil {
			return ErrAuctionAlreadySettled
		}
		if !force && product.EndTime != nil && time.Now().Before(*product.EndTime) {
			return ErrAuctionNotEnded
		}

		bids, err := s.bidRepo.WithTx(tx).ListByProductID(productID)
		if err != nil {
			return err
		}
		now := time.Now()
		if len(bids) == 0 {
			// 流拍：只封闭竞拍，不动库存
			noBids = true
			return s.productRepo.WithTx(tx).UpdateFields(product.ID, map[string]interface{}{
				"settled_at": now,
				"updated_at": now,
			})
		}

		winner := bids[0]
		refID := productID
		for _, bid := range bids[1:] {
			if _, err := s.pointsSvc.AwardInTx(tx, PointsChangeInput{
				UserID: bid.UserID,
				Amount: bid.BidPoints,
				Reason: constants.PointsReasonAuctionRefund,
				RefID:  &refID,
				Remark: fmt.Sprintf("竞拍未中返还：%s", product.Name),
			}); err != nil {
				return err
			}
		}

		order, err = s.createMarketOrderInTx(tx, winner.UserID, product, fmt.Sprintf("竞拍成功：%s", product.Name))
		if err != nil {
			return err
		}

		updates := map[string]interface{}{
			"settled_at": now,
			"updated_at": now,
		}
		if product.Stock > 0 {
			updates["stock"] = gorm.Expr("stock - ?", 1)
		}
		return s.productRepo.WithTx(tx).UpdateFields(product.ID, updates)
	})
	if err != nil {
		return nil, err
	}
	if noBids {
		return nil, ErrAuctionNoBids
	}
	logger.Infow("auction_settled",
		"product_id", productID,
		"order_no", order.OrderNo,
		"winner_id", order.UserID,
	)
	return order, nil
}

// createMarketOrderInTx 生成商城订单：运费为商品固定运费，等待买家支付运费后出库
func (s *AuctionService) createMarketOrderInTx(tx *gorm.DB, userID uint, product *models.Product, remark string) (*models.Order, error) {
	productID := product.ID
	order := &models.Order{
		OrderNo:      generateOrderNo(),
		UserID:       userID,
		OrderType:    constants.OrderTypeMarket,
		Status:       constants.OrderStatusPendingShipFee,
		ShippingFee:  product.FixedShippingFee,
		Currency:     constants.RateCurrencyDefault,
		CargoDetails: product.Name,
		ProductID:    &productID,
	}
	if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
		return nil, err
	}
	if err := s.orderRepo.WithTx(tx).CreateTrackingLog(&models.TrackingLog{
		OrderID:     order.ID,
		StatusTitle: order.Status,
		Description: remark,
	}); err != nil {
		return nil, err
	}
	return order, nil
}

// exchangeCost 计算一口价：优先取 direct_buy_points，非竞拍商品回落到 points_required
func exchangeCost(product *models.Product) (int64, bool) {
	if product.DirectBuyPoints != nil && *product.DirectBuyPoints > 0 {
		return *product.DirectBuyPoints, true
	}
	if !product.IsAuction && product.PointsRequired > 0 {
		return product.PointsRequired, true
	}
	return 0, false
}
