package public

import (
	"strconv"
	"strings"

	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOrderRequest 创建物流订单请求
type CreateOrderRequest struct {
	Country         string `json:"country" binding:"required"`
	ShippingMethod  string `json:"shipping_method" binding:"required"`
	Weight          string `json:"weight" binding:"required"`
	CargoDetails    string `json:"cargo_details"`
	SenderName      string `json:"sender_name"`
	SenderPhone     string `json:"sender_phone"`
	SenderAddress   string `json:"sender_address"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverPhone   string `json:"receiver_phone"`
	ReceiverAddress string `json:"receiver_address"`
}

// WaybillRequest 运单信息请求
type WaybillRequest struct {
	CargoDetails    string `json:"cargo_details"`
	SenderName      string `json:"sender_name"`
	SenderPhone     string `json:"sender_phone"`
	SenderAddress   string `json:"sender_address"`
	ReceiverName    string `json:"receiver_name"`
	ReceiverPhone   string `json:"receiver_phone"`
	ReceiverAddress string `json:"receiver_address"`
}

// CreateOrder 创建物流订单（运费按价目试算锁定）
func (h *Handler) CreateOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	weight, err := models.NewMoneyFromString(strings.TrimSpace(req.Weight))
	if err != nil {
		respondError(c, response.CodeBadRequest, "重量格式错误", err)
		return
	}
	order, err := h.OrderService.CreateOrder(service.CreateOrderInput{
		UserID:          uid,
		Country:         req.Country,
		ShippingMethod:  req.ShippingMethod,
		Weight:          weight,
		CargoDetails:    req.CargoDetails,
		SenderName:      req.SenderName,
		SenderPhone:     req.SenderPhone,
		SenderAddress:   req.SenderAddress,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
		ReceiverAddress: req.ReceiverAddress,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "创建订单失败")
		return
	}
	response.Success(c, order)
}

// ListMyOrders 当前用户订单列表
func (h *Handler) ListMyOrders(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	orders, total, err := h.OrderService.ListOrders(repository.OrderListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    uid,
		Status:    c.Query("status"),
		OrderType: c.Query("order_type"),
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "查询订单失败")
		return
	}
	response.SuccessWithPage(c, orders, response.BuildPagination(page, pageSize, total))
}

// GetMyOrder 当前用户订单详情
func (h *Handler) GetMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	detail, err := h.OrderService.GetOrderForUser(orderID, uid)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "查询订单失败")
		return
	}
	response.Success(c, detail)
}

// UpdateMyWaybill 填写/修改运单信息
func (h *Handler) UpdateMyWaybill(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req WaybillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	detail, err := h.OrderService.UpdateWaybill(orderID, uid, service.WaybillInput{
		CargoDetails:    req.CargoDetails,
		SenderName:      req.SenderName,
		SenderPhone:     req.SenderPhone,
		SenderAddress:   req.SenderAddress,
		ReceiverName:    req.ReceiverName,
		ReceiverPhone:   req.ReceiverPhone,
		ReceiverAddress: req.ReceiverAddress,
	})
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "更新运单失败")
		return
	}
	response.Success(c, detail)
}

// RequestCancelMyOrder 用户发起取消申请
func (h *Handler) RequestCancelMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	if err := h.OrderService.RequestCancel(orderID, constants.CancelRequestedByCustomer, uid); err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "取消申请失败")
		return
	}
	response.SuccessWithMsg(c, "取消申请已提交，等待平台处理", nil)
}

// ResolveCancelMyOrder 用户处理平台发起的取消申请
func (h *Handler) ResolveCancelMyOrder(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}
	var req struct {
		Action string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	// 归属校验先于处理
	if _, err := h.OrderService.GetOrderForUser(orderID, uid); err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "查询订单失败")
		return
	}
	order, err := h.OrderService.ResolveCancel(orderID, constants.CancelRequestedByCustomer, req.Action)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "处理取消申请失败")
		return
	}
	response.Success(c, order)
}

// TrackByNumber 按物流单号公开查询轨迹
func (h *Handler) TrackByNumber(c *gin.Context) {
	trackingNo := strings.TrimSpace(c.Param("tracking_no"))
	if trackingNo == "" {
		respondError(c, response.CodeBadRequest, "物流单号不能为空", nil)
		return
	}
	detail, err := h.OrderService.TrackByNumber(trackingNo)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "查询轨迹失败")
		return
	}
	response.Success(c, detail)
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "订单ID无效", err)
		return 0, false
	}
	return uint(id), true
}
