package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuctionServiceTest(t *testing.T) (*AuctionService, *PointsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auction_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointsHistory{},
		&models.PendingCompensation{},
		&models.Product{},
		&models.Bid{},
		&models.Order{},
		&models.TrackingLog{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cfg := &config.Config{}
	pointsSvc := NewPointsService(
		repository.NewUserRepository(db),
		repository.NewPointsRepository(db),
		repository.NewCompensationRepository(db),
		cfg,
	)
	auctionSvc := NewAuctionService(
		repository.NewProductRepository(db),
		repository.NewBidRepository(db),
		repository.NewOrderRepository(db),
		pointsSvc,
	)
	return auctionSvc, pointsSvc, db
}

func createAuctionTestUser(t *testing.T, db *gorm.DB, id uint, points int64) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("auction_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
		Points:       points,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func createAuctionProduct(t *testing.T, db *gorm.DB, endTime time.Time) *models.Product {
	t.Helper()
	product := &models.Product{
		Name:             "限量手办",
		PointsRequired:   100,
		FixedShippingFee: mustMoney(t, "30"),
		Stock:            1,
		IsAuction:        true,
		EndTime:          &endTime,
		IsActive:         true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product
}

func TestPlaceBidValidations(t *testing.T) {
	svc, _, db := setupAuctionServiceTest(t)
	createAuctionTestUser(t, db, 1, 1000)
	product := createAuctionProduct(t, db, time.Now().Add(time.Hour))

	// 低于起拍价
	if _, err := svc.PlaceBid(1, product.ID, 50); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("below floor want ErrBidTooLow got %v", err)
	}

	bid, err := svc.PlaceBid(1, product.ID, 100)
	if err != nil {
		t.Fatalf("first bid failed: %v", err)
	}
	if bid.BidPoints != 100 {
		t.Fatalf("bid points want 100 got %d", bid.BidPoints)
	}

	// 不高于当前最高价
	createAuctionTestUser(t, db, 2, 1000)
	if _, err := svc.PlaceBid(2, product.ID, 100); !errors.Is(err, ErrBidTooLow) {
		t.Fatalf("equal bid want ErrBidTooLow got %v", err)
	}

	// 非竞拍商品
	normal := &models.Product{Name: "行李秤", PointsRequired: 50, Stock: 10, IsActive: true}
	if err := db.Create(normal).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	if _, err := svc.PlaceBid(1, normal.ID, 60); !errors.Is(err, ErrProductNotAuction) {
		t.Fatalf("non-auction want ErrProductNotAuction got %v", err)
	}

	// 已截止
	ended := createAuctionProduct(t, db, time.Now().Add(-time.Minute))
	if _, err := svc.PlaceBid(1, ended.ID, 200); !errors.Is(err, ErrAuctionEnded) {
		t.Fatalf("past end time want ErrAuctionEnded got %v", err)
	}
}

func TestPlaceBidDeductsPoints(t *testing.T) {
	svc, pointsSvc, db := setupAuctionServiceTest(t)
	createAuctionTestUser(t, db, 1, 150)
	product := createAuctionProduct(t, db, time.Now().Add(time.Hour))

	if _, err := svc.PlaceBid(1, product.ID, 120); err != nil {
		t.Fatalf("bid failed: %v", err)
	}
	balance, _ := pointsSvc.GetBalance(1)
	if balance != 30 {
		t.Fatalf("balance after bid want 30 got %d", balance)
	}

	// 余额不够时出价失败且不落记录
	if _, err := svc.PlaceBid(1, product.ID, 140); !errors.Is(err, ErrPointsInsufficient) {
		t.Fatalf("insufficient want ErrPointsInsufficient got %v", err)
	}
	var count int64
	db.Model(&models.Bid{}).Where("product_id = ?", product.ID).Count(&count)
	if count != 1 {
		t.Fatalf("bid count want 1 got %d", count)
	}
}

func TestSettleAuctionWinnerAndRefunds(t *testing.T) {
	svc, pointsSvc, db := setupAuctionServiceTest(t)
	createAuctionTestUser(t, db, 1, 500)
	createAuctionTestUser(t, db, 2, 500)
	createAuctionTestUser(t, db, 3, 500)
	product := createAuctionProduct(t, db, time.Now().Add(time.Hour))

	if _, err := svc.PlaceBid(1, product.ID, 100); err != nil {
		t.Fatalf("bid 1 failed: %v", err)
	}
	if _, err := svc.PlaceBid(2, product.ID, 200); err != nil {
		t.Fatalf("bid 2 failed: %v", err)
	}
	if _, err := svc.PlaceBid(3, product.ID, 300); err != nil {
		t.Fatalf("bid 3 failed: %v", err)
	}

	// 未到截止时间不允许结拍，force 可以提前
	if _, err := svc.SettleAuction(product.ID, false); !errors.Is(err, ErrAuctionNotEnded) {
		t.Fatalf("before end want ErrAuctionNotEnded got %v", err)
	}
	order, err := svc.SettleAuction(product.ID, true)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if order.UserID != 3 {
		t.Fatalf("winner want user 3 got %d", order.UserID)
	}
	if order.Status != constants.OrderStatusPendingShipFee || order.OrderType != constants.OrderTypeMarket {
		t.Fatalf("winner order want market/待支付运费 got %s/%s", order.OrderType, order.Status)
	}
	if order.ShippingFee.String() != "30.00" {
		t.Fatalf("winner order fee want 30.00 got %s", order.ShippingFee.String())
	}

	// 败者返还、胜者不返还
	balance, _ := pointsSvc.GetBalance(1)
	if balance != 500 {
		t.Fatalf("loser 1 balance want 500 got %d", balance)
	}
	balance, _ = pointsSvc.GetBalance(2)
	if balance != 500 {
		t.Fatalf("loser 2 balance want 500 got %d", balance)
	}
	balance, _ = pointsSvc.GetBalance(3)
	if balance != 200 {
		t.Fatalf("winner balance want 200 got %d", balance)
	}

	// settled_at 一次性闸门
	if _, err := svc.SettleAuction(product.ID, true); !errors.Is(err, ErrAuctionAlreadySettled) {
		t.Fatalf("second settle want ErrAuctionAlreadySettled got %v", err)
	}
	var reloaded models.Product
	db.First(&reloaded, product.ID)
	if reloaded.SettledAt == nil || reloaded.Stock != 0 {
		t.Fatalf("product should be settled with stock 0, got %+v", reloaded)
	}
}

func TestSettleAuctionFirstBidderWinsTie(t *testing.T) {
	svc, _, db := setupAuctionServiceTest(t)
	createAuctionTestUser(t, db, 1, 500)
	createAuctionTestUser(t, db, 2, 500)
	product := createAuctionProduct(t, db, time.Now().Add(-time.Minute))

	// 同额出价直接落库模拟并发场景：先出价者 id 更小
	bids := []models.Bid{
		{ProductID: product.ID, UserID: 1, BidPoints: 200},
		{ProductID: product.ID, UserID: 2, BidPoints: 200},
	}
	for i := range bids {
		if err := db.Create(&bids[i]).Error; err != nil {
			t.Fatalf("create bid failed: %v", err)
		}
	}

	order, err := svc.SettleAuction(product.ID, false)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if order.UserID != 1 {
		t.Fatalf("tie should go to first bidder, want user 1 got %d", order.UserID)
	}
}

func TestSettleAuctionNoBids(t *testing.T) {
	svc, _, db := setupAuctionServiceTest(t)
	product := createAuctionProduct(t, db, time.Now().Add(-time.Minute))

	if _, err := svc.SettleAuction(product.ID, false); !errors.Is(err, ErrAuctionNoBids) {
		t.Fatalf("no bids want ErrAuctionNoBids got %v", err)
	}
	// 流拍也会封闭竞拍，但库存不动
	var reloaded models.Product
	db.First(&reloaded, product.ID)
	if reloaded.SettledAt == nil {
		t.Fatalf("no-bid settle should still stamp settled_at")
	}
	if reloaded.Stock != 1 {
		t.Fatalf("no-bid settle should keep stock, got %d", reloaded.Stock)
	}
	if _, err := svc.SettleAuction(product.ID, false); !errors.Is(err, ErrAuctionAlreadySettled) {
		t.Fatalf("settle after no-bid close want ErrAuctionAlreadySettled got %v", err)
	}
}

func TestExchange(t *testing.T) {
	svc, pointsSvc, db := setupAuctionServiceTest(t)
	createAuctionTestUser(t, db, 1, 500)

	product := &models.Product{
		Name:             "真空袋",
		PointsRequired:   120,
		FixedShippingFee: mustMoney(t, "20"),
		Stock:            2,
		IsActive:         true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	order, err := svc.Exchange(1, product.ID)
	if err != nil {
		t.Fatalf("exchange failed: %v", err)
	}
	if order.Status != constants.OrderStatusPendingShipFee {
		t.Fatalf("exchange order want 待支付运费 got %s", order.Status)
	}
	balance, _ := pointsSvc.GetBalance(1)
	if balance != 380 {
		t.Fatalf("balance after exchange want 380 got %d", balance)
	}
	var reloaded models.Product
	db.First(&reloaded, product.ID)
	if reloaded.Stock != 1 {
		t.Fatalf("stock want 1 got %d", reloaded.Stock)
	}

	// 库存用尽
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).Update("stock", 0).Error; err != nil {
		t.Fatalf("set stock failed: %v", err)
	}
	if _, err := svc.Exchange(1, product.ID); !errors.Is(err, ErrProductOutOfStock) {
		t.Fatalf("zero stock want ErrProductOutOfStock got %v", err)
	}
}

func TestExchangePrefersDirectBuyPoints(t *testing.T) {
	svc, pointsSvc, db := setupAuctionServiceTest(t)
	createAuctionTestUser(t, db, 1, 1000)

	buyout := int64(600)
	endTime := time.Now().Add(time.Hour)
	product := &models.Product{
		Name:             "联名手办",
		PointsRequired:   100,
		DirectBuyPoints:  &buyout,
		FixedShippingFee: mustMoney(t, "30"),
		Stock:            1,
		IsAuction:        true,
		EndTime:          &endTime,
		IsActive:         true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	if _, err := svc.Exchange(1, product.ID); err != nil {
		t.Fatalf("buyout exchange failed: %v", err)
	}
	balance, _ := pointsSvc.GetBalance(1)
	if balance != 400 {
		t.Fatalf("balance after buyout want 400 got %d", balance)
	}

	// 没有一口价的竞拍商品不可兑换
	auctionOnly := createAuctionProduct(t, db, time.Now().Add(time.Hour))
	if _, err := svc.Exchange(1, auctionOnly.ID); !errors.Is(err, ErrProductNotExchangeable) {
		t.Fatalf("auction without buyout want ErrProductNotExchangeable got %v", err)
	}
}

func TestListBidsOrder(t *testing.T) {
	svc, _, db := setupAuctionServiceTest(t)
	product := createAuctionProduct(t, db, time.Now().Add(time.Hour))

	bids := []models.Bid{
		{ProductID: product.ID, UserID: 1, BidPoints: 100},
		{ProductID: product.ID, UserID: 2, BidPoints: 300},
		{ProductID: product.ID, UserID: 3, BidPoints: 300},
		{ProductID: product.ID, UserID: 4, BidPoints: 200},
	}
	for i := range bids {
		if err := db.Create(&bids[i]).Error; err != nil {
			t.Fatalf("create bid failed: %v", err)
		}
	}

	listed, err := svc.ListBids(product.ID)
	if err != nil {
		t.Fatalf("list bids failed: %v", err)
	}
	wantUsers := []uint{2, 3, 4, 1}
	if len(listed) != len(wantUsers) {
		t.Fatalf("bid count want %d got %d", len(wantUsers), len(listed))
	}
	for i, want := range wantUsers {
		if listed[i].UserID != want {
			t.Fatalf("position %d want user %d got %d", i, want, listed[i].UserID)
		}
	}
}
