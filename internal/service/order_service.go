package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务
// 订单状态机的全部流转都经过 allowedTransitions 校验；结算（已完成）
// 是唯一会动积分的流转，与状态写入同事务提交。
type OrderService struct {
	orderRepo  repository.OrderRepository
	pointsSvc  *PointsService
	freightSvc *FreightService
}

// CreateOrderInput 创建物流订单输入
type CreateOrderInput struct {
	UserID          uint
	Country         string
	ShippingMethod  string
	Weight          models.Money
	CargoDetails    string
	SenderName      string
	SenderPhone     string
	SenderAddress   string
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
}

// WaybillInput 运单信息输入
type WaybillInput struct {
	CargoDetails    string
	SenderName      string
	SenderPhone     string
	SenderAddress   string
	ReceiverName    string
	ReceiverPhone   string
	ReceiverAddress string
}

// TrackingInput 物流轨迹输入
type TrackingInput struct {
	StatusTitle string
	Location    string
	Description string
	SyncStatus  string // 可选：同步推进订单状态
}

// OrderDetail 订单详情（含派生的运单完整标记）
type OrderDetail struct {
	models.Order
	WaybillComplete bool                 `json:"waybill_complete"`
	TrackingLogs    []models.TrackingLog `json:"tracking_logs"`
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	pointsSvc *PointsService,
	freightSvc *FreightService,
) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		pointsSvc:  pointsSvc,
		freightSvc: freightSvc,
	}
}

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPendingConfirm: {
		constants.OrderStatusPendingPayment: true,
		constants.OrderStatusPendingShipFee: true,
		constants.OrderStatusCanceled:       true,
	},
	constants.OrderStatusPendingPayment: {
		constants.OrderStatusPaid:     true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusPendingShipFee: {
		constants.OrderStatusPaid:            true,
		constants.OrderStatusPendingDispatch: true,
		constants.OrderStatusCanceled:        true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusPendingDispatch: true,
	},
	constants.OrderStatusPendingDispatch: {
		constants.OrderStatusWarehoused: true,
		constants.OrderStatusInTransit:  true,
	},
	constants.OrderStatusWarehoused: {
		constants.OrderStatusInTransit: true,
		constants.OrderStatusCompleted: true,
	},
	constants.OrderStatusInTransit: {
		constants.OrderStatusCompleted: true,
	},
}

// CreateOrder 从运费试算创建物流订单
func (s *OrderService) CreateOrder(input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	quote, err := s.freightSvc.Quote(input.Country, input.ShippingMethod, input.Weight)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		OrderNo:         generateOrderNo(),
		UserID:          input.UserID,
		OrderType:       constants.OrderTypeLogistics,
		Status:          constants.OrderStatusPendingConfirm,
		Country:         quote.Country,
		ShippingMethod:  quote.ShippingMethod,
		Weight:          quote.Weight,
		ShippingFee:     quote.Fee,
		Currency:        quote.Currency,
		CargoDetails:    strings.TrimSpace(input.CargoDetails),
		SenderName:      strings.TrimSpace(input.SenderName),
		SenderPhone:     strings.TrimSpace(input.SenderPhone),
		SenderAddress:   strings.TrimSpace(input.SenderAddress),
		ReceiverName:    strings.TrimSpace(input.ReceiverName),
		ReceiverPhone:   strings.TrimSpace(input.ReceiverPhone),
		ReceiverAddress: strings.TrimSpace(input.ReceiverAddress),
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	return order, nil
}

// WaybillComplete 运单完整性判定
// 七个必填字段全部非空才算完整，是「可确认」派生标记的唯一来源。
func WaybillComplete(order *models.Order) bool {
	if order == nil {
		return false
	}
	fields := []string{
		order.CargoDetails,
		order.SenderName,
		order.SenderPhone,
		order.SenderAddress,
		order.ReceiverName,
		order.ReceiverPhone,
		order.ReceiverAddress,
	}
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			return false
		}
	}
	return true
}

// UpdateWaybill 客户补全/修改运单信息
// 物流订单仅在待确认状态允许整单编辑；商城订单任意非终态仅允许改收件人。
func (s *OrderService) UpdateWaybill(orderID, userID uint, input WaybillInput) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}

	updates := map[string]interface{}{
		"receiver_name":    strings.TrimSpace(input.ReceiverName),
		"receiver_phone":   strings.TrimSpace(input.ReceiverPhone),
		"receiver_address": strings.TrimSpace(input.ReceiverAddress),
		"updated_at":       time.Now(),
	}
	switch order.OrderType {
	case constants.OrderTypeMarket:
		if isTerminalStatus(order.Status) {
			return nil, ErrWaybillLocked
		}
	default:
		if order.Status != constants.OrderStatusPendingConfirm {
			return nil, ErrWaybillLocked
		}
		updates["cargo_details"] = strings.TrimSpace(input.CargoDetails)
		updates["sender_name"] = strings.TrimSpace(input.SenderName)
		updates["sender_phone"] = strings.TrimSpace(input.SenderPhone)
		updates["sender_address"] = strings.TrimSpace(input.SenderAddress)
	}

	if err := s.orderRepo.UpdateFields(orderID, updates); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	return s.GetOrderDetail(orderID)
}

// GetOrderDetail 查询订单详情
func (s *OrderService) GetOrderDetail(orderID uint) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	logs, err := s.orderRepo.ListTrackingLogs(orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{
		Order:           *order,
		WaybillComplete: WaybillComplete(order),
		TrackingLogs:    logs,
	}, nil
}

// GetOrderForUser 查询用户自己的订单
func (s *OrderService) GetOrderForUser(orderID, userID uint) (*OrderDetail, error) {
	detail, err := s.GetOrderDetail(orderID)
	if err != nil {
		return nil, err
	}
	if detail.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return detail, nil
}

// ListOrders 分页查询订单
func (s *OrderService) ListOrders(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// ConfirmPayment 管理员确认运费到账
// 物流订单推进到已支付，商城订单直接进入待出库。不动积分。
func (s *OrderService) ConfirmPayment(orderID, operatorID uint) (*models.Order, error) {
	var updated *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		target := constants.OrderStatusPaid
		if order.OrderType == constants.OrderTypeMarket {
			target = constants.OrderStatusPendingDispatch
		}
		switch order.Status {
		case constants.OrderStatusPendingPayment, constants.OrderStatusPendingShipFee:
		default:
			return ErrOrderStatusInvalid
		}
		if !isTransitionAllowed(order.Status, target) {
			return ErrOrderStatusInvalid
		}

		now := time.Now()
		if err := repo.UpdateFields(order.ID, map[string]interface{}{
			"status":     target,
			"paid_at":    now,
			"updated_at": now,
		}); err != nil {
			return ErrOrderUpdateFailed
		}
		if err := repo.CreateTrackingLog(&models.TrackingLog{
			OrderID:     order.ID,
			StatusTitle: target,
			Description: "运费支付已确认",
			OperatorID:  operatorID,
		}); err != nil {
			return err
		}
		order.Status = target
		order.PaidAt = &now
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateStatus 管理员推进订单状态
// 目标为已完成时走结算路径（积分发放与状态写入同事务）。
// 重复提交同一状态照常落一条轨迹，审计里能看到每次受理。
func (s *OrderService) UpdateStatus(orderID uint, target string, operatorID uint) (*models.Order, error) {
	if target == constants.OrderStatusCompleted {
		return s.Settle(orderID, operatorID)
	}
	var updated *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if !isTransitionAllowed(order.Status, target) {
			return ErrOrderStatusInvalid
		}
		now := time.Now()
		updates := map[string]interface{}{
			"status":     target,
			"updated_at": now,
		}
		if target == constants.OrderStatusCanceled {
			updates["canceled_at"] = now
			updates["cancel_requested_by"] = constants.CancelRequestedByNone
			updates["cancel_requested_at"] = nil
		}
		if err := repo.UpdateFields(order.ID, updates); err != nil {
			return ErrOrderUpdateFailed
		}
		if err := repo.CreateTrackingLog(&models.TrackingLog{
			OrderID:     order.ID,
			StatusTitle: target,
			OperatorID:  operatorID,
		}); err != nil {
			return err
		}
		order.Status = target
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Settle 结算订单：置为已完成并按 floor(运费) 1:1 发放积分，至多一次。
func (s *OrderService) Settle(orderID, operatorID uint) (*models.Order, error) {
	var updated *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := s.settleInTx(tx, order, operatorID); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// settleInTx 结算核心，调用方必须已对订单行加锁。
// 幂等边界：状态为已完成直接拒绝；points_awarded 非零作为二次防线不再发放。
func (s *OrderService) settleInTx(tx *gorm.DB, order *models.Order, operatorID uint) error {
	if order.Status == constants.OrderStatusCompleted {
		return ErrOrderAlreadySettled
	}
	if !isTransitionAllowed(order.Status, constants.OrderStatusCompleted) {
		return ErrOrderStatusInvalid
	}

	credit := order.ShippingFee.Decimal.IntPart() // 1:1 截断取整
	if credit < 0 {
		credit = 0
	}
	now := time.Now()
	awarded := order.PointsAwarded
	if credit > 0 && awarded == 0 {
		orderID := order.ID
		if _, err := s.pointsSvc.AwardInTx(tx, PointsChangeInput{
			UserID: order.UserID,
			Amount: credit,
			Reason: constants.PointsReasonOrderSettle,
			RefID:  &orderID,
			Remark: fmt.Sprintf("订单 %s 结算奖励", order.OrderNo),
		}); err != nil {
			return err
		}
		awarded += credit
	}

	repo := s.orderRepo.WithTx(tx)
	if err := repo.UpdateFields(order.ID, map[string]interface{}{
		"status":         constants.OrderStatusCompleted,
		"points_awarded": awarded,
		"settled_at":     now,
		"updated_at":     now,
	}); err != nil {
		return ErrOrderUpdateFailed
	}
	if err := repo.CreateTrackingLog(&models.TrackingLog{
		OrderID:     order.ID,
		StatusTitle: constants.OrderStatusCompleted,
		Description: "订单已完成结算",
		OperatorID:  operatorID,
	}); err != nil {
		return err
	}
	order.Status = constants.OrderStatusCompleted
	order.PointsAwarded = awarded
	order.SettledAt = &now
	return nil
}

// AddTracking 追加物流轨迹，可选同步推进状态
// 同步目标为已完成时触发与 Settle 相同的结算副作用（同一幂等防线）。
func (s *OrderService) AddTracking(orderID uint, input TrackingInput, operatorID uint) (*models.Order, error) {
	title := strings.TrimSpace(input.StatusTitle)
	if title == "" {
		return nil, ErrOrderStatusInvalid
	}
	var updated *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		order, err := repo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if order == nil {
			return ErrOrderNotFound
		}

		sync := strings.TrimSpace(input.SyncStatus)
		if sync == constants.OrderStatusCompleted {
			// 结算路径自带轨迹写入，这里先补一条自定义节点
			if title != constants.OrderStatusCompleted {
				if err := repo.CreateTrackingLog(&models.TrackingLog{
					OrderID:     order.ID,
					StatusTitle: title,
					Location:    strings.TrimSpace(input.Location),
					Description: strings.TrimSpace(input.Description),
					OperatorID:  operatorID,
				}); err != nil {
					return err
				}
			}
			if err := s.settleInTx(tx, order, operatorID); err != nil {
				return err
			}
			updated = order
			return nil
		}

		if err := repo.CreateTrackingLog(&models.TrackingLog{
			OrderID:     order.ID,
			StatusTitle: title,
			Location:    strings.TrimSpace(input.Location),
			Description: strings.TrimSpace(input.Description),
			OperatorID:  operatorID,
		}); err != nil {
			return err
		}
		if sync != "" && sync != order.Status {
			if !isTransitionAllowed(order.Status, sync) {
				return ErrOrderStatusInvalid
			}
			if err := repo.UpdateFields(order.ID, map[string]interface{}{
				"status":     sync,
				"updated_at": time.Now(),
			}); err != nil {
				return ErrOrderUpdateFailed
			}
			order.Status = sync
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetTrackingNo 管理员录入物流单号
func (s *OrderService) SetTrackingNo(orderID uint, trackingNo string) (*models.Order, error) {
	trackingNo = strings.TrimSpace(trackingNo)
	if trackingNo == "" {
		return nil, ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.orderRepo.UpdateFields(orderID, map[string]interface{}{
		"tracking_no": trackingNo,
		"updated_at":  time.Now(),
	}); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	order.TrackingNo = trackingNo
	return order, nil
}

// RequestCancel 发起取消申请
// 仅待确认状态允许；对方有未处理申请时不允许再次发起。
// 通过带条件的单语句 UPDATE 保证并发下只有一方申请成功。
func (s *OrderService) RequestCancel(orderID uint, requestedBy string, userID uint) error {
	if requestedBy != constants.CancelRequestedByCustomer && requestedBy != constants.CancelRequestedByAdmin {
		return ErrOrderStatusInvalid
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if requestedBy == constants.CancelRequestedByCustomer && order.UserID != userID {
		return ErrOrderNotFound
	}

	now := time.Now()
	rows, err := s.orderRepo.UpdateFieldsGuarded(orderID,
		map[string]interface{}{
			"status":              constants.OrderStatusPendingConfirm,
			"cancel_requested_by": constants.CancelRequestedByNone,
		},
		map[string]interface{}{
			"cancel_requested_by": requestedBy,
			"cancel_requested_at": now,
			"updated_at":          now,
		},
	)
	if err != nil {
		return err
	}
	if rows == 0 {
		// 守卫未命中，回读定位具体原因
		current, err := s.orderRepo.GetByID(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.Status != constants.OrderStatusPendingConfirm {
			return ErrOrderStatusInvalid
		}
		return ErrCancelRequestPending
	}
	return nil
}

// ResolveCancel 处理取消申请（approve 同意 / reject 拒绝）
// 只能由申请方的对方处理；拒绝后清空申请字段，订单照常流转。
func (s *OrderService) ResolveCancel(orderID uint, resolverRole, action string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.CancelRequestedBy == constants.CancelRequestedByNone {
		return nil, ErrCancelRequestMissing
	}
	if order.CancelRequestedBy == resolverRole {
		return nil, ErrCancelSelfResolve
	}

	now := time.Now()
	updates := map[string]interface{}{
		"cancel_requested_by": constants.CancelRequestedByNone,
		"cancel_requested_at": nil,
		"updated_at":          now,
	}
	if action == constants.CancelResolveApprove {
		updates["status"] = constants.OrderStatusCanceled
		updates["canceled_at"] = now
	} else if action != constants.CancelResolveReject {
		return nil, ErrOrderStatusInvalid
	}

	rows, err := s.orderRepo.UpdateFieldsGuarded(orderID,
		map[string]interface{}{
			"status":              constants.OrderStatusPendingConfirm,
			"cancel_requested_by": order.CancelRequestedBy,
		},
		updates,
	)
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, ErrOrderStatusInvalid
	}
	return s.orderRepo.GetByID(orderID)
}

// TrackByNumber 公开物流查询
func (s *OrderService) TrackByNumber(trackingNo string) (*OrderDetail, error) {
	order, err := s.orderRepo.GetByTrackingNo(trackingNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.GetOrderDetail(order.ID)
}

func isTerminalStatus(status string) bool {
	return status == constants.OrderStatusCompleted || status == constants.OrderStatusCanceled
}

func isTransitionAllowed(current, target string) bool {
	if current == target {
		return true
	}
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	randPart := randNumeric(6)
	return fmt.Sprintf("JY%s%s", now, randPart)
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}
