package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

// ProductRequest 商品创建/更新请求
type ProductRequest struct {
	Name             string     `json:"name" binding:"required"`
	Description      string     `json:"description"`
	ImageURL         string     `json:"image_url"`
	Category         string     `json:"category"`
	PointsRequired   int64      `json:"points_required"`
	DirectBuyPoints  *int64     `json:"direct_buy_points"`
	FixedShippingFee string     `json:"fixed_shipping_fee"`
	Stock            int        `json:"stock"`
	IsAuction        bool       `json:"is_auction"`
	EndTime          *time.Time `json:"end_time"`
	IsActive         bool       `json:"is_active"`
	SortOrder        int        `json:"sort_order"`
}

// ListAdminProducts 商品列表（含下架与已结拍）
func (h *Handler) ListAdminProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:     page,
		PageSize: pageSize,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if isAuction := strings.TrimSpace(c.Query("is_auction")); isAuction != "" {
		value := isAuction == "true" || isAuction == "1"
		filter.IsAuction = &value
	}

	products, total, err := h.ProductService.ListProducts(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "查询商品失败", err)
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetAdminProduct 商品详情
func (h *Handler) GetAdminProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	detail, err := h.ProductService.GetProductDetail(productID)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "查询商品失败")
		return
	}
	response.Success(c, detail)
}

// CreateProduct 创建商品
func (h *Handler) CreateProduct(c *gin.Context) {
	input, ok := bindProductInput(c)
	if !ok {
		return
	}
	product, err := h.ProductService.CreateProduct(input)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "创建商品失败")
		return
	}
	response.Success(c, product)
}

// UpdateProduct 更新商品
func (h *Handler) UpdateProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	input, ok := bindProductInput(c)
	if !ok {
		return
	}
	product, err := h.ProductService.UpdateProduct(productID, input)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "更新商品失败")
		return
	}
	response.Success(c, product)
}

// DeleteProduct 删除商品
func (h *Handler) DeleteProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.DeleteProduct(productID); err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "删除商品失败")
		return
	}
	response.SuccessWithMsg(c, "商品已删除", nil)
}

// SettleAuctionProduct 手工结拍（截止前需 force）
func (h *Handler) SettleAuctionProduct(c *gin.Context) {
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	force := c.Query("force") == "true" || c.Query("force") == "1"
	order, err := h.AuctionService.SettleAuction(productID, force)
	if err != nil {
		respondWithMappedError(c, err, adminProductErrorRules, response.CodeInternal, "结拍失败")
		return
	}
	response.SuccessWithMsg(c, "结拍完成", order)
}

func bindProductInput(c *gin.Context) (service.ProductInput, bool) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return service.ProductInput{}, false
	}
	fee := models.Money{}
	if trimmed := strings.TrimSpace(req.FixedShippingFee); trimmed != "" {
		parsed, err := models.NewMoneyFromString(trimmed)
		if err != nil {
			respondError(c, response.CodeBadRequest, "固定运费格式错误", err)
			return service.ProductInput{}, false
		}
		fee = parsed
	}
	return service.ProductInput{
		Name:             req.Name,
		Description:      req.Description,
		ImageURL:         req.ImageURL,
		Category:         req.Category,
		PointsRequired:   req.PointsRequired,
		DirectBuyPoints:  req.DirectBuyPoints,
		FixedShippingFee: fee,
		Stock:            req.Stock,
		IsAuction:        req.IsAuction,
		EndTime:          req.EndTime,
		IsActive:         req.IsActive,
		SortOrder:        req.SortOrder,
	}, true
}
