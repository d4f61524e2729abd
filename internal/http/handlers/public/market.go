package public

import (
	"strconv"
	"strings"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"

	"github.com/gin-gonic/gin"
)

// BidRequest 出价请求
type BidRequest struct {
	BidPoints int64 `json:"bid_points" binding:"required"`
}

// ListProducts 商城商品列表（仅在售）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:       page,
		PageSize:   pageSize,
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		OnlyActive: true,
		OnlyOnSale: true,
	}
	if isAuction := strings.TrimSpace(c.Query("is_auction")); isAuction != "" {
		value := isAuction == "true" || isAuction == "1"
		filter.IsAuction = &value
	}

	products, total, err := h.ProductService.ListProducts(filter)
	if err != nil {
		respondWithMappedError(c, err, marketErrorRules, response.CodeInternal, "查询商品失败")
		return
	}
	response.SuccessWithPage(c, products, response.BuildPagination(page, pageSize, total))
}

// GetProduct 商品详情（竞拍商品附带出价信息）
func (h *Handler) GetProduct(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	detail, err := h.ProductService.GetProductDetail(productID)
	if err != nil {
		respondWithMappedError(c, err, marketErrorRules, response.CodeInternal, "查询商品失败")
		return
	}
	response.Success(c, detail)
}

// ListProductBids 商品出价记录
func (h *Handler) ListProductBids(c *gin.Context) {
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	bids, err := h.AuctionService.ListBids(productID)
	if err != nil {
		respondWithMappedError(c, err, marketErrorRules, response.CodeInternal, "查询出价失败")
		return
	}
	response.Success(c, bids)
}

// PlaceBid 竞拍出价
func (h *Handler) PlaceBid(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	var req BidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	bid, err := h.AuctionService.PlaceBid(uid, productID, req.BidPoints)
	if err != nil {
		respondWithMappedError(c, err, marketErrorRules, response.CodeInternal, "出价失败")
		return
	}
	response.SuccessWithMsg(c, "出价成功", bid)
}

// ExchangeProduct 一口价兑换，成功即生成待支付运费的商城订单
func (h *Handler) ExchangeProduct(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	order, err := h.AuctionService.Exchange(uid, productID)
	if err != nil {
		respondWithMappedError(c, err, marketErrorRules, response.CodeInternal, "兑换失败")
		return
	}
	response.SuccessWithMsg(c, "兑换成功", order)
}

func parseProductID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "商品ID无效", err)
		return 0, false
	}
	return uint(id), true
}
