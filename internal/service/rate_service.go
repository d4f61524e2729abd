package service

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jiyun-go/internal/constants"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RateService 运费价目对账服务
// 对账分两步：Reconcile 做纯 diff 预览，Apply 重新校验后全量成败提交。
type RateService struct {
	rateRepo repository.RateRepository
}

// RateRowInput 待对账的一行价目（金额字段保留原始文本，解析失败记为行错误）
type RateRowInput struct {
	SourceRow      int    `json:"source_row"`
	Country        string `json:"country"`
	ShippingMethod string `json:"shipping_method"`
	MinWeight      string `json:"min_weight"`
	MaxWeight      string `json:"max_weight"`
	UnitPrice      string `json:"unit_price"`
	Currency       string `json:"currency"`
	DeliveryDays   string `json:"delivery_days"`
}

// RateRowError 单行校验错误
type RateRowError struct {
	SourceRow int    `json:"source_row"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

// RateUpdateItem 待更新项，带当前值与来稿值对照
type RateUpdateItem struct {
	Current  models.ShippingRate `json:"current"`
	Incoming models.ShippingRate `json:"incoming"`
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	ToAdd          []models.ShippingRate `json:"to_add"`
	ToUpdate       []RateUpdateItem      `json:"to_update"`
	Errors         []RateRowError        `json:"errors"`
	UnchangedCount int                   `json:"unchanged_count"`
}

// RateApplyResult 批量执行结果
type RateApplyResult struct {
	BatchID      string   `json:"batch_id"`
	AddedCount   int      `json:"added_count"`
	UpdatedCount int      `json:"updated_count"`
	Countries    []string `json:"countries"`
}

// NewRateService 创建价目服务
func NewRateService(rateRepo repository.RateRepository) *RateService {
	return &RateService{rateRepo: rateRepo}
}

// Reconcile 纯 diff：同一批输入对同一份现存价目永远给出同一结果。
// 自然键为 (country, shipping_method, min_weight)，键相同视为同一行价目；
// 与现存完全一致的行直接丢弃，不计入新增也不计入更新。
func (s *RateService) Reconcile(rows []RateRowInput) (*ReconcileResult, error) {
	existing, err := s.rateRepo.ListAll()
	if err != nil {
		return nil, err
	}
	return reconcileRates(existing, rows), nil
}

// Apply 确认执行对账结果
// 执行前重新校验：只要还有任何一行错误，整批拒绝，一行都不写。
// 成功时 upsert 全部变更并落一条审计日志。
func (s *RateService) Apply(operatorID uint, rows []RateRowInput) (*RateApplyResult, error) {
	result, err := s.Reconcile(rows)
	if err != nil {
		return nil, err
	}
	if len(result.Errors) > 0 {
		return nil, ErrRateBatchInvalid
	}

	countries := collectRateCountries(result)
	apply := &RateApplyResult{
		BatchID:      uuid.NewString(),
		AddedCount:   len(result.ToAdd),
		UpdatedCount: len(result.ToUpdate),
		Countries:    countries,
	}
	if apply.AddedCount == 0 && apply.UpdatedCount == 0 {
		apply.BatchID = ""
		return apply, nil
	}

	upserts := make([]models.ShippingRate, 0, apply.AddedCount+apply.UpdatedCount)
	upserts = append(upserts, result.ToAdd...)
	for _, item := range result.ToUpdate {
		upserts = append(upserts, item.Incoming)
	}

	err = s.rateRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.rateRepo.WithTx(tx)
		if err := repo.UpsertBatch(upserts); err != nil {
			return err
		}
		return repo.CreateChangeLog(&models.RateChangeLog{
			BatchID:      apply.BatchID,
			OperatorID:   operatorID,
			AddedCount:   apply.AddedCount,
			UpdatedCount: apply.UpdatedCount,
			Countries:    strings.Join(countries, ","),
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("rate_batch_applied",
		"batch_id", apply.BatchID,
		"operator_id", operatorID,
		"added", apply.AddedCount,
		"updated", apply.UpdatedCount,
	)
	return apply, nil
}

// ListRates 分页查询价目
func (s *RateService) ListRates(filter repository.RateListFilter) ([]models.ShippingRate, int64, error) {
	return s.rateRepo.List(filter)
}

// ListChangeLogs 分页查询审计日志
func (s *RateService) ListChangeLogs(page, pageSize int) ([]models.RateChangeLog, int64, error) {
	return s.rateRepo.ListChangeLogs(page, pageSize)
}

// ParseRateCSV 解析价目 CSV
// 表头固定为 country,shipping_method,min_weight,max_weight,unit_price,currency,delivery_days，
// source_row 记录文件内行号，供逐行报错定位。
func ParseRateCSV(r io.Reader) ([]RateRowInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	rows := make([]RateRowInput, 0)
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		line++
		if line == 1 && isRateCSVHeader(record) {
			continue
		}
		row := RateRowInput{SourceRow: line}
		for i, value := range record {
			value = strings.TrimSpace(value)
			switch i {
			case 0:
				row.Country = value
			case 1:
				row.ShippingMethod = value
			case 2:
				row.MinWeight = value
			case 3:
				row.MaxWeight = value
			case 4:
				row.UnitPrice = value
			case 5:
				row.Currency = value
			case 6:
				row.DeliveryDays = value
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isRateCSVHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(record[0]), "country")
}

// reconcileRates 对账核心：校验、去重、与现存比对，分拣出新增/更新/错误三类
func reconcileRates(existing []models.ShippingRate, rows []RateRowInput) *ReconcileResult {
	current := make(map[string]models.ShippingRate, len(existing))
	for _, rate := range existing {
		current[rateKey(rate.Country, rate.ShippingMethod, rate.MinWeight.Decimal)] = rate
	}

	result := &ReconcileResult{
		ToAdd:    []models.ShippingRate{},
		ToUpdate: []RateUpdateItem{},
		Errors:   []RateRowError{},
	}
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		rate, rowErrs := validateRateRow(row)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}
		key := rateKey(rate.Country, rate.ShippingMethod, rate.MinWeight.Decimal)
		if firstRow, dup := seen[key]; dup {
			result.Errors = append(result.Errors, RateRowError{
				SourceRow: row.SourceRow,
				Field:     "min_weight",
				Message:   fmt.Sprintf("与第 %d 行重复：同一线路同一阶梯下限只能出现一次", firstRow),
			})
			continue
		}
		seen[key] = row.SourceRow

		old, exists := current[key]
		if !exists {
			result.ToAdd = append(result.ToAdd, rate)
			continue
		}
		if rateEquivalent(old, rate) {
			result.UnchangedCount++
			continue
		}
		rate.ID = old.ID
		rate.CreatedAt = old.CreatedAt
		result.ToUpdate = append(result.ToUpdate, RateUpdateItem{Current: old, Incoming: rate})
	}
	return result
}

// validateRateRow 单行校验，错误逐字段上报
func validateRateRow(row RateRowInput) (models.ShippingRate, []RateRowError) {
	errs := []RateRowError{}
	fail := func(field, message string) {
		errs = append(errs, RateRowError{SourceRow: row.SourceRow, Field: field, Message: message})
	}

	country := strings.TrimSpace(row.Country)
	if country == "" {
		fail("country", "国家不能为空")
	}
	method := strings.TrimSpace(row.ShippingMethod)
	if method == "" {
		fail("shipping_method", "运输方式不能为空")
	}

	minWeight, err := models.NewMoneyFromString(strings.TrimSpace(row.MinWeight))
	if err != nil {
		fail("min_weight", "阶梯下限不是合法数字")
	} else if minWeight.Decimal.IsNegative() {
		fail("min_weight", "阶梯下限不能为负数")
	}

	var maxWeight *models.Money
	if trimmed := strings.TrimSpace(row.MaxWeight); trimmed != "" {
		parsed, err := models.NewMoneyFromString(trimmed)
		if err != nil {
			fail("max_weight", "阶梯上限不是合法数字")
		} else if parsed.Decimal.LessThan(minWeight.Decimal) {
			fail("max_weight", "阶梯上限不能小于阶梯下限")
		} else {
			maxWeight = &parsed
		}
	}

	unitPrice, err := models.NewMoneyFromString(strings.TrimSpace(row.UnitPrice))
	if err != nil {
		fail("unit_price", "单价不是合法数字")
	} else if unitPrice.Decimal.LessThanOrEqual(decimal.Zero) {
		fail("unit_price", "单价必须大于 0")
	}

	currency := strings.ToUpper(strings.TrimSpace(row.Currency))
	if currency == "" {
		currency = constants.RateCurrencyDefault
	}

	if len(errs) > 0 {
		return models.ShippingRate{}, errs
	}
	return models.ShippingRate{
		Country:        country,
		ShippingMethod: method,
		MinWeight:      minWeight,
		MaxWeight:      maxWeight,
		UnitPrice:      unitPrice,
		Currency:       currency,
		DeliveryDays:   strings.TrimSpace(row.DeliveryDays),
	}, nil
}

// rateEquivalent 除自然键外的字段是否全部一致
func rateEquivalent(a, b models.ShippingRate) bool {
	if !a.UnitPrice.Decimal.Equal(b.UnitPrice.Decimal) {
		return false
	}
	if a.Currency != b.Currency || a.DeliveryDays != b.DeliveryDays {
		return false
	}
	if (a.MaxWeight == nil) != (b.MaxWeight == nil) {
		return false
	}
	if a.MaxWeight != nil && !a.MaxWeight.Decimal.Equal(b.MaxWeight.Decimal) {
		return false
	}
	return true
}

func rateKey(country, method string, minWeight decimal.Decimal) string {
	return strings.ToLower(strings.TrimSpace(country)) + "|" +
		strings.ToLower(strings.TrimSpace(method)) + "|" +
		minWeight.Round(2).StringFixed(2)
}

func collectRateCountries(result *ReconcileResult) []string {
	set := map[string]bool{}
	countries := []string{}
	add := func(country string) {
		if !set[country] {
			set[country] = true
			countries = append(countries, country)
		}
	}
	for _, rate := range result.ToAdd {
		add(rate.Country)
	}
	for _, item := range result.ToUpdate {
		add(item.Incoming.Country)
	}
	return countries
}
