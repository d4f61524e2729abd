package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *PointsService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PointsHistory{},
		&models.PendingCompensation{},
		&models.Order{},
		&models.TrackingLog{},
		&models.ShippingRate{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cfg := &config.Config{}
	cfg.Freight.MinChargeWeight = "1"
	pointsSvc := NewPointsService(
		repository.NewUserRepository(db),
		repository.NewPointsRepository(db),
		repository.NewCompensationRepository(db),
		cfg,
	)
	freightSvc := NewFreightService(repository.NewRateRepository(db), cfg)
	orderSvc := NewOrderService(repository.NewOrderRepository(db), pointsSvc, freightSvc)
	return orderSvc, pointsSvc, db
}

func createOrderTestUser(t *testing.T, db *gorm.DB, id uint) {
	t.Helper()
	user := models.User{
		ID:           id,
		Email:        fmt.Sprintf("order_user_%d@example.com", id),
		PasswordHash: "hash",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
}

func createOrderTestRate(t *testing.T, db *gorm.DB) {
	t.Helper()
	rate := models.ShippingRate{
		Country:        "Japan",
		ShippingMethod: "air",
		MinWeight:      mustMoney(t, "0"),
		UnitPrice:      mustMoney(t, "28"),
		Currency:       "CNY",
		DeliveryDays:   "3-5天",
	}
	if err := db.Create(&rate).Error; err != nil {
		t.Fatalf("create rate failed: %v", err)
	}
}

func mustMoney(t *testing.T, s string) models.Money {
	t.Helper()
	m, err := models.NewMoneyFromString(s)
	if err != nil {
		t.Fatalf("parse money %q failed: %v", s, err)
	}
	return m
}

func createTestLogisticsOrder(t *testing.T, svc *OrderService, userID uint, complete bool) *models.Order {
	t.Helper()
	input := CreateOrderInput{
		UserID:         userID,
		Country:        "Japan",
		ShippingMethod: "air",
		Weight:         mustMoney(t, "2.5"),
		CargoDetails:   "衣物",
		SenderName:     "张三",
		SenderPhone:    "13800000000",
		SenderAddress:  "上海市徐汇区",
	}
	if complete {
		input.ReceiverName = "山田"
		input.ReceiverPhone = "0900000000"
		input.ReceiverAddress = "東京都新宿区"
	}
	order, err := svc.CreateOrder(input)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func TestCreateOrderUsesFreightQuote(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)

	order := createTestLogisticsOrder(t, svc, 1, true)
	if order.Status != constants.OrderStatusPendingConfirm {
		t.Fatalf("new order status want 待确认 got %s", order.Status)
	}
	if order.OrderType != constants.OrderTypeLogistics {
		t.Fatalf("order type want logistics got %s", order.OrderType)
	}
	// 2.5kg × 28 = 70.00
	if order.ShippingFee.String() != "70.00" {
		t.Fatalf("shipping fee want 70.00 got %s", order.ShippingFee.String())
	}
	if !strings.HasPrefix(order.OrderNo, "JY") {
		t.Fatalf("order no should start with JY, got %s", order.OrderNo)
	}
}

func TestWaybillComplete(t *testing.T) {
	if WaybillComplete(nil) {
		t.Fatalf("nil order should be incomplete")
	}
	order := &models.Order{
		CargoDetails:    "衣物",
		SenderName:      "张三",
		SenderPhone:     "13800000000",
		SenderAddress:   "上海",
		ReceiverName:    "山田",
		ReceiverPhone:   "0900000000",
		ReceiverAddress: "東京",
	}
	if !WaybillComplete(order) {
		t.Fatalf("all fields filled should be complete")
	}
	order.ReceiverPhone = "   "
	if WaybillComplete(order) {
		t.Fatalf("blank field should be incomplete")
	}
}

func TestUpdateWaybillOnlyPendingConfirm(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, false)

	detail, err := svc.UpdateWaybill(order.ID, 1, WaybillInput{
		CargoDetails:    "衣物",
		SenderName:      "张三",
		SenderPhone:     "13800000000",
		SenderAddress:   "上海",
		ReceiverName:    "山田",
		ReceiverPhone:   "0900000000",
		ReceiverAddress: "東京",
	})
	if err != nil {
		t.Fatalf("update waybill failed: %v", err)
	}
	if !detail.WaybillComplete {
		t.Fatalf("waybill should be complete after update")
	}

	// 其他用户不可见
	if _, err := svc.UpdateWaybill(order.ID, 2, WaybillInput{}); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("other user want ErrOrderNotFound got %v", err)
	}

	// 离开待确认后锁定
	if err := db.Model(&models.Order{}).Where("id = ?", order.ID).
		Update("status", constants.OrderStatusPendingShipFee).Error; err != nil {
		t.Fatalf("set status failed: %v", err)
	}
	if _, err := svc.UpdateWaybill(order.ID, 1, WaybillInput{}); !errors.Is(err, ErrWaybillLocked) {
		t.Fatalf("locked waybill want ErrWaybillLocked got %v", err)
	}
}

func TestUpdateStatusRejectsInvalidTransition(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	// 待确认不能直接运输中
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusInTransit, 9); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("invalid transition want ErrOrderStatusInvalid got %v", err)
	}

	updated, err := svc.UpdateStatus(order.ID, constants.OrderStatusPendingShipFee, 9)
	if err != nil {
		t.Fatalf("valid transition failed: %v", err)
	}
	if updated.Status != constants.OrderStatusPendingShipFee {
		t.Fatalf("status want 待支付运费 got %s", updated.Status)
	}

	// 同状态重复提交仍受理，并且照常留一条轨迹
	repeated, err := svc.UpdateStatus(order.ID, constants.OrderStatusPendingShipFee, 9)
	if err != nil {
		t.Fatalf("same-status update failed: %v", err)
	}
	if repeated.Status != constants.OrderStatusPendingShipFee {
		t.Fatalf("status want 待支付运费 got %s", repeated.Status)
	}

	var logs []models.TrackingLog
	db.Where("order_id = ?", order.ID).Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("tracking log count want 2 got %d", len(logs))
	}
}

func TestConfirmPayment(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	// 待确认不允许确认支付
	if _, err := svc.ConfirmPayment(order.ID, 9); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("pending confirm want ErrOrderStatusInvalid got %v", err)
	}

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusPendingShipFee, 9); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	updated, err := svc.ConfirmPayment(order.ID, 9)
	if err != nil {
		t.Fatalf("confirm payment failed: %v", err)
	}
	if updated.Status != constants.OrderStatusPaid {
		t.Fatalf("logistics order after payment want 已支付 got %s", updated.Status)
	}
	if updated.PaidAt == nil {
		t.Fatalf("paid_at should be stamped")
	}

	// 商城订单确认支付直接进待出库
	market := &models.Order{
		OrderNo:     "JYTEST000001",
		UserID:      1,
		OrderType:   constants.OrderTypeMarket,
		Status:      constants.OrderStatusPendingShipFee,
		ShippingFee: mustMoney(t, "30"),
		Currency:    "CNY",
	}
	if err := db.Create(market).Error; err != nil {
		t.Fatalf("create market order failed: %v", err)
	}
	updated, err = svc.ConfirmPayment(market.ID, 9)
	if err != nil {
		t.Fatalf("confirm market payment failed: %v", err)
	}
	if updated.Status != constants.OrderStatusPendingDispatch {
		t.Fatalf("market order after payment want 待出库 got %s", updated.Status)
	}
}

func TestSettleAwardsPointsExactlyOnce(t *testing.T) {
	svc, pointsSvc, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)

	order := &models.Order{
		OrderNo:     "JYTEST000002",
		UserID:      1,
		OrderType:   constants.OrderTypeLogistics,
		Status:      constants.OrderStatusInTransit,
		ShippingFee: mustMoney(t, "88.90"),
		Currency:    "CNY",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	updated, err := svc.Settle(order.ID, 9)
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if updated.Status != constants.OrderStatusCompleted {
		t.Fatalf("status want 已完成 got %s", updated.Status)
	}
	// floor(88.90) = 88
	if updated.PointsAwarded != 88 {
		t.Fatalf("points awarded want 88 got %d", updated.PointsAwarded)
	}
	balance, _ := pointsSvc.GetBalance(1)
	if balance != 88 {
		t.Fatalf("balance want 88 got %d", balance)
	}

	// 重复结算拒绝且不再发放
	if _, err := svc.Settle(order.ID, 9); !errors.Is(err, ErrOrderAlreadySettled) {
		t.Fatalf("second settle want ErrOrderAlreadySettled got %v", err)
	}
	balance, _ = pointsSvc.GetBalance(1)
	if balance != 88 {
		t.Fatalf("balance after duplicate settle want 88 got %d", balance)
	}
}

func TestSettleRejectsNotReadyStatus(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	// 待确认不能直接完成
	if _, err := svc.Settle(order.ID, 9); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("settle from 待确认 want ErrOrderStatusInvalid got %v", err)
	}
}

func TestAddTrackingWithStatusSyncSettles(t *testing.T) {
	svc, pointsSvc, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)

	order := &models.Order{
		OrderNo:     "JYTEST000003",
		UserID:      1,
		OrderType:   constants.OrderTypeLogistics,
		Status:      constants.OrderStatusInTransit,
		ShippingFee: mustMoney(t, "50"),
		Currency:    "CNY",
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	updated, err := svc.AddTracking(order.ID, TrackingInput{
		StatusTitle: "包裹已签收",
		Location:    "東京",
		SyncStatus:  constants.OrderStatusCompleted,
	}, 9)
	if err != nil {
		t.Fatalf("add tracking failed: %v", err)
	}
	if updated.Status != constants.OrderStatusCompleted {
		t.Fatalf("synced status want 已完成 got %s", updated.Status)
	}
	balance, _ := pointsSvc.GetBalance(1)
	if balance != 50 {
		t.Fatalf("settlement via tracking want 50 points got %d", balance)
	}

	// 自定义节点 + 结算节点各一条
	var logs []models.TrackingLog
	db.Where("order_id = ?", order.ID).Order("id").Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("tracking log count want 2 got %d", len(logs))
	}
	if logs[0].StatusTitle != "包裹已签收" || logs[1].StatusTitle != constants.OrderStatusCompleted {
		t.Fatalf("unexpected tracking titles: %s / %s", logs[0].StatusTitle, logs[1].StatusTitle)
	}
}

func TestCancelHandshake(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	// 客户发起
	if err := svc.RequestCancel(order.ID, constants.CancelRequestedByCustomer, 1); err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	// 已有申请时再次发起被拒
	if err := svc.RequestCancel(order.ID, constants.CancelRequestedByAdmin, 0); !errors.Is(err, ErrCancelRequestPending) {
		t.Fatalf("duplicate request want ErrCancelRequestPending got %v", err)
	}
	// 申请方自己不能处理
	if _, err := svc.ResolveCancel(order.ID, constants.CancelRequestedByCustomer, constants.CancelResolveApprove); !errors.Is(err, ErrCancelSelfResolve) {
		t.Fatalf("self resolve want ErrCancelSelfResolve got %v", err)
	}

	// 对方同意后订单终态取消，申请字段清空
	resolved, err := svc.ResolveCancel(order.ID, constants.CancelRequestedByAdmin, constants.CancelResolveApprove)
	if err != nil {
		t.Fatalf("resolve cancel failed: %v", err)
	}
	if resolved.Status != constants.OrderStatusCanceled {
		t.Fatalf("status want 已取消 got %s", resolved.Status)
	}
	if resolved.CancelRequestedBy != constants.CancelRequestedByNone || resolved.CanceledAt == nil {
		t.Fatalf("cancel fields not finalized: %+v", resolved)
	}

	// 没有申请时处理被拒
	if _, err := svc.ResolveCancel(order.ID, constants.CancelRequestedByAdmin, constants.CancelResolveApprove); !errors.Is(err, ErrCancelRequestMissing) {
		t.Fatalf("no pending request want ErrCancelRequestMissing got %v", err)
	}
}

func TestCancelRejectKeepsOrderFlowing(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	if err := svc.RequestCancel(order.ID, constants.CancelRequestedByAdmin, 0); err != nil {
		t.Fatalf("request cancel failed: %v", err)
	}
	resolved, err := svc.ResolveCancel(order.ID, constants.CancelRequestedByCustomer, constants.CancelResolveReject)
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if resolved.Status != constants.OrderStatusPendingConfirm {
		t.Fatalf("rejected order should stay 待确认, got %s", resolved.Status)
	}
	if resolved.CancelRequestedBy != constants.CancelRequestedByNone {
		t.Fatalf("request fields should be cleared after reject")
	}

	// 拒绝后订单照常流转
	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusPendingShipFee, 9); err != nil {
		t.Fatalf("order should keep flowing after reject: %v", err)
	}
}

func TestRequestCancelOnlyPendingConfirm(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	if _, err := svc.UpdateStatus(order.ID, constants.OrderStatusPendingShipFee, 9); err != nil {
		t.Fatalf("advance failed: %v", err)
	}
	if err := svc.RequestCancel(order.ID, constants.CancelRequestedByCustomer, 1); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("non pending-confirm want ErrOrderStatusInvalid got %v", err)
	}
}

func TestSetTrackingNoAndTrackByNumber(t *testing.T) {
	svc, _, db := setupOrderServiceTest(t)
	createOrderTestUser(t, db, 1)
	createOrderTestRate(t, db)
	order := createTestLogisticsOrder(t, svc, 1, true)

	if _, err := svc.SetTrackingNo(order.ID, "  SF123456789  "); err != nil {
		t.Fatalf("set tracking no failed: %v", err)
	}
	detail, err := svc.TrackByNumber("SF123456789")
	if err != nil {
		t.Fatalf("track by number failed: %v", err)
	}
	if detail.ID != order.ID {
		t.Fatalf("tracked order want %d got %d", order.ID, detail.ID)
	}

	if _, err := svc.TrackByNumber("NOPE"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("unknown tracking no want ErrOrderNotFound got %v", err)
	}
}
