package public

import (
	"strings"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/models"

	"github.com/gin-gonic/gin"
)

// FreightQuoteRequest 运费试算请求
type FreightQuoteRequest struct {
	Country        string `json:"country" binding:"required"`
	ShippingMethod string `json:"shipping_method"`
	Weight         string `json:"weight" binding:"required"`
}

// QuoteFreight 运费试算（指定方式单条报价，不指定时返回全部方式）
func (h *Handler) QuoteFreight(c *gin.Context) {
	var req FreightQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	weight, err := models.NewMoneyFromString(strings.TrimSpace(req.Weight))
	if err != nil {
		respondError(c, response.CodeBadRequest, "重量格式错误", err)
		return
	}

	if strings.TrimSpace(req.ShippingMethod) != "" {
		quote, err := h.FreightService.Quote(req.Country, req.ShippingMethod, weight)
		if err != nil {
			respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "运费试算失败")
			return
		}
		response.Success(c, quote)
		return
	}

	quotes, err := h.FreightService.QuoteAll(req.Country, weight)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "运费试算失败")
		return
	}
	response.Success(c, quotes)
}

// ListFreightCountries 可报价国家列表
func (h *Handler) ListFreightCountries(c *gin.Context) {
	countries, err := h.FreightService.ListCountries()
	if err != nil {
		respondError(c, response.CodeInternal, "查询国家列表失败", err)
		return
	}
	response.Success(c, countries)
}
