package service

import (
	"strings"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/shopspring/decimal"
)

// FreightService 运费试算服务
// 报价规则：在 (国家, 运输方式) 的重量阶梯中找到覆盖计费重量的那一档，
// 运费 = 单价 × 计费重量，保留 2 位小数。
type FreightService struct {
	rateRepo repository.RateRepository
	cfg      *config.Config
}

// FreightQuote 运费报价结果
type FreightQuote struct {
	Country        string       `json:"country"`
	ShippingMethod string       `json:"shipping_method"`
	Weight         models.Money `json:"weight"`
	UnitPrice      models.Money `json:"unit_price"`
	Fee            models.Money `json:"fee"`
	Currency       string       `json:"currency"`
	DeliveryDays   string       `json:"delivery_days,omitempty"`
}

// NewFreightService 创建运费服务
func NewFreightService(rateRepo repository.RateRepository, cfg *config.Config) *FreightService {
	return &FreightService{rateRepo: rateRepo, cfg: cfg}
}

// Quote 运费试算
func (s *FreightService) Quote(country, method string, weight models.Money) (*FreightQuote, error) {
	country = strings.TrimSpace(country)
	method = strings.TrimSpace(method)
	if country == "" || method == "" {
		return nil, ErrRateNotFound
	}
	chargeWeight := s.normalizeChargeWeight(weight.Decimal)
	if chargeWeight.LessThanOrEqual(decimal.Zero) {
		return nil, ErrRateNotFound
	}

	rates, err := s.rateRepo.ListByCountryMethod(country, method)
	if err != nil {
		return nil, err
	}
	rate := pickRateTier(rates, chargeWeight)
	if rate == nil {
		return nil, ErrRateNotFound
	}

	fee := rate.UnitPrice.Decimal.Mul(chargeWeight).Round(2)
	return &FreightQuote{
		Country:        rate.Country,
		ShippingMethod: rate.ShippingMethod,
		Weight:         models.NewMoneyFromDecimal(chargeWeight),
		UnitPrice:      rate.UnitPrice,
		Fee:            models.NewMoneyFromDecimal(fee),
		Currency:       rate.Currency,
		DeliveryDays:   rate.DeliveryDays,
	}, nil
}

// QuoteAll 返回某国家全部可用方式的报价
func (s *FreightService) QuoteAll(country string, weight models.Money) ([]FreightQuote, error) {
	country = strings.TrimSpace(country)
	if country == "" {
		return nil, ErrRateNotFound
	}
	chargeWeight := s.normalizeChargeWeight(weight.Decimal)
	if chargeWeight.LessThanOrEqual(decimal.Zero) {
		return nil, ErrRateNotFound
	}

	rates, err := s.rateRepo.ListByCountryMethod(country, "")
	if err != nil {
		return nil, err
	}

	grouped := map[string][]models.ShippingRate{}
	methods := make([]string, 0)
	for _, rate := range rates {
		if _, ok := grouped[rate.ShippingMethod]; !ok {
			methods = append(methods, rate.ShippingMethod)
		}
		grouped[rate.ShippingMethod] = append(grouped[rate.ShippingMethod], rate)
	}

	quotes := make([]FreightQuote, 0, len(methods))
	for _, method := range methods {
		rate := pickRateTier(grouped[method], chargeWeight)
		if rate == nil {
			continue
		}
		fee := rate.UnitPrice.Decimal.Mul(chargeWeight).Round(2)
		quotes = append(quotes, FreightQuote{
			Country:        rate.Country,
			ShippingMethod: rate.ShippingMethod,
			Weight:         models.NewMoneyFromDecimal(chargeWeight),
			UnitPrice:      rate.UnitPrice,
			Fee:            models.NewMoneyFromDecimal(fee),
			Currency:       rate.Currency,
			DeliveryDays:   rate.DeliveryDays,
		})
	}
	return quotes, nil
}

// ListCountries 查询可报价国家
func (s *FreightService) ListCountries() ([]string, error) {
	return s.rateRepo.ListCountries()
}

// normalizeChargeWeight 最低计费重量兜底
func (s *FreightService) normalizeChargeWeight(weight decimal.Decimal) decimal.Decimal {
	weight = weight.Round(2)
	minWeight := decimal.Zero
	if s.cfg != nil {
		if parsed, err := decimal.NewFromString(strings.TrimSpace(s.cfg.Freight.MinChargeWeight)); err == nil {
			minWeight = parsed
		}
	}
	if weight.LessThan(minWeight) {
		return minWeight
	}
	return weight
}

// pickRateTier 选择覆盖计费重量的阶梯：min_weight <= w 且 (max_weight 为空或 w <= max_weight)。
// 多档同时覆盖时取 min_weight 最大的那档（阶梯按 min_weight 升序存储）。
func pickRateTier(rates []models.ShippingRate, weight decimal.Decimal) *models.ShippingRate {
	var matched *models.ShippingRate
	for i := range rates {
		rate := &rates[i]
		if weight.LessThan(rate.MinWeight.Decimal) {
			continue
		}
		if rate.MaxWeight != nil && weight.GreaterThan(rate.MaxWeight.Decimal) {
			continue
		}
		if matched == nil || rate.MinWeight.Decimal.GreaterThan(matched.MinWeight.Decimal) {
			matched = rate
		}
	}
	return matched
}
