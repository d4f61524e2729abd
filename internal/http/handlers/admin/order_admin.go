package admin

import (
	"strconv"
	"strings"

	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

// UpdateStatusRequest 订单状态流转请求
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// AddTrackingRequest 物流轨迹追加请求
type AddTrackingRequest struct {
	StatusTitle string `json:"status_title" binding:"required"`
	Location    string `json:"location"`
	Description string `json:"description"`
	SyncStatus  string `json:"sync_status"`
}

// SetTrackingNoRequest 物流单号设置请求
type SetTrackingNoRequest struct {
	TrackingNo string `json:"tracking_no" binding:"required"`
}

// ResolveCancelRequest 取消申请处理请求
type ResolveCancelRequest struct {
	Action string `json:"action" binding:"required"`
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uint(userID),
		Status:     c.Query("status"),
		OrderType:  c.Query("order_type"),
		OrderNo:    c.Query("order_no"),
		TrackingNo: c.Query("tracking_no"),
		Country:    c.Query("country"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询订单失败", err)
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetOrder 订单详情
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.OrderService.GetOrderDetail(orderID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "查询订单失败")
		return
	}
	response.Success(c, detail)
}

// ConfirmOrderPayment 确认运费支付（线下转账人工核对后）
func (h *Handler) ConfirmOrderPayment(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.ConfirmPayment(orderID, operatorID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "确认支付失败")
		return
	}
	response.SuccessWithMsg(c, "支付已确认", order)
}

// UpdateOrderStatus 订单状态流转（流转到已完成会触发结算）
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	order, err := h.OrderService.UpdateStatus(orderID, strings.TrimSpace(req.Status), operatorID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "状态流转失败")
		return
	}
	response.Success(c, order)
}

// SettleOrder 手工结算订单
func (h *Handler) SettleOrder(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.Settle(orderID, operatorID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "结算失败")
		return
	}
	response.SuccessWithMsg(c, "订单已结算", order)
}

// AddOrderTracking 追加物流轨迹（可选同步推进状态）
func (h *Handler) AddOrderTracking(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AddTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	order, err := h.OrderService.AddTracking(orderID, service.TrackingInput{
		StatusTitle: req.StatusTitle,
		Location:    req.Location,
		Description: req.Description,
		SyncStatus:  req.SyncStatus,
	}, operatorID)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "追加轨迹失败")
		return
	}
	response.Success(c, order)
}

// SetOrderTrackingNo 设置物流单号
func (h *Handler) SetOrderTrackingNo(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req SetTrackingNoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	order, err := h.OrderService.SetTrackingNo(orderID, req.TrackingNo)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "设置物流单号失败")
		return
	}
	response.Success(c, order)
}

// RequestOrderCancel 平台发起取消申请
func (h *Handler) RequestOrderCancel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.OrderService.RequestCancel(orderID, constants.CancelRequestedByAdmin, 0); err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "取消申请失败")
		return
	}
	response.SuccessWithMsg(c, "取消申请已提交，等待用户确认", nil)
}

// ResolveOrderCancel 处理用户发起的取消申请
func (h *Handler) ResolveOrderCancel(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req ResolveCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	order, err := h.OrderService.ResolveCancel(orderID, constants.CancelRequestedByAdmin, req.Action)
	if err != nil {
		respondWithMappedError(c, err, adminOrderErrorRules, response.CodeInternal, "处理取消申请失败")
		return
	}
	response.Success(c, order)
}
