package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupRateServiceTest(t *testing.T) (*RateService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:rate_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ShippingRate{}, &models.RateChangeLog{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return NewRateService(repository.NewRateRepository(db)), db
}

func createExistingRate(t *testing.T, db *gorm.DB, country, method, minWeight, unitPrice string) models.ShippingRate {
	t.Helper()
	rate := models.ShippingRate{
		Country:        country,
		ShippingMethod: method,
		MinWeight:      mustMoney(t, minWeight),
		UnitPrice:      mustMoney(t, unitPrice),
		Currency:       "CNY",
		DeliveryDays:   "3-5天",
	}
	if err := db.Create(&rate).Error; err != nil {
		t.Fatalf("create rate failed: %v", err)
	}
	return rate
}

func TestReconcileBuckets(t *testing.T) {
	svc, db := setupRateServiceTest(t)
	createExistingRate(t, db, "Japan", "air", "0", "28")
	createExistingRate(t, db, "Japan", "sea", "0", "9.50")

	rows := []RateRowInput{
		// 与现存完全一致：丢弃
		{SourceRow: 2, Country: "Japan", ShippingMethod: "sea", MinWeight: "0", UnitPrice: "9.50", Currency: "CNY", DeliveryDays: "3-5天"},
		// 键相同但单价变了：更新
		{SourceRow: 3, Country: "Japan", ShippingMethod: "air", MinWeight: "0", UnitPrice: "26.00", Currency: "CNY", DeliveryDays: "3-5天"},
		// 新键：新增
		{SourceRow: 4, Country: "Korea", ShippingMethod: "air", MinWeight: "0", UnitPrice: "22.00"},
	}
	result, err := svc.Reconcile(rows)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("want no errors got %+v", result.Errors)
	}
	if result.UnchangedCount != 1 {
		t.Fatalf("unchanged want 1 got %d", result.UnchangedCount)
	}
	if len(result.ToAdd) != 1 || result.ToAdd[0].Country != "Korea" {
		t.Fatalf("to_add want Korea got %+v", result.ToAdd)
	}
	// 缺省币种归一为 CNY
	if result.ToAdd[0].Currency != "CNY" {
		t.Fatalf("default currency want CNY got %s", result.ToAdd[0].Currency)
	}
	if len(result.ToUpdate) != 1 {
		t.Fatalf("to_update want 1 got %d", len(result.ToUpdate))
	}
	update := result.ToUpdate[0]
	if update.Current.UnitPrice.String() != "28.00" || update.Incoming.UnitPrice.String() != "26.00" {
		t.Fatalf("update pair want 28.00→26.00 got %s→%s",
			update.Current.UnitPrice.String(), update.Incoming.UnitPrice.String())
	}
}

func TestReconcileIsDeterministic(t *testing.T) {
	svc, db := setupRateServiceTest(t)
	createExistingRate(t, db, "Japan", "air", "0", "25")

	rows := []RateRowInput{
		{SourceRow: 2, Country: "Japan", ShippingMethod: "air", MinWeight: "0", UnitPrice: "30.00", Currency: "CNY", DeliveryDays: "3-5天"},
		{SourceRow: 3, Country: "Korea", ShippingMethod: "sea", MinWeight: "0", UnitPrice: "8.50"},
		{SourceRow: 4, Country: "Japan", ShippingMethod: "air", MinWeight: "-5", UnitPrice: "10"},
	}
	first, err := svc.Reconcile(rows)
	if err != nil {
		t.Fatalf("first reconcile failed: %v", err)
	}
	second, err := svc.Reconcile(rows)
	if err != nil {
		t.Fatalf("second reconcile failed: %v", err)
	}
	// 对账是纯只读比对，同一输入重复执行结果必须逐桶一致
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("same input should reconcile identically:\nfirst=%+v\nsecond=%+v", first, second)
	}

	if len(first.ToUpdate) != 1 {
		t.Fatalf("to_update want 1 got %d", len(first.ToUpdate))
	}
	pair := first.ToUpdate[0]
	if pair.Current.UnitPrice.String() != "25.00" || pair.Incoming.UnitPrice.String() != "30.00" {
		t.Fatalf("update pair want 25.00→30.00 got %s→%s",
			pair.Current.UnitPrice.String(), pair.Incoming.UnitPrice.String())
	}
	if len(first.ToAdd) != 1 || first.ToAdd[0].Country != "Korea" {
		t.Fatalf("to_add want Korea got %+v", first.ToAdd)
	}
	// 非法行只进错误桶
	if len(first.Errors) != 1 || first.Errors[0].SourceRow != 4 || first.Errors[0].Field != "min_weight" {
		t.Fatalf("errors want row 4 min_weight got %+v", first.Errors)
	}
}

func TestReconcileKeyIsCaseAndSpaceInsensitive(t *testing.T) {
	svc, db := setupRateServiceTest(t)
	createExistingRate(t, db, "Japan", "air", "0", "28")

	rows := []RateRowInput{
		{SourceRow: 2, Country: " japan ", ShippingMethod: "AIR", MinWeight: "0.00", UnitPrice: "30.00", Currency: "cny", DeliveryDays: "3-5天"},
	}
	result, err := svc.Reconcile(rows)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(result.ToAdd) != 0 || len(result.ToUpdate) != 1 {
		t.Fatalf("normalized key should match existing row, got add=%d update=%d",
			len(result.ToAdd), len(result.ToUpdate))
	}
}

func TestReconcileRowValidation(t *testing.T) {
	svc, _ := setupRateServiceTest(t)

	rows := []RateRowInput{
		{SourceRow: 2, Country: "", ShippingMethod: "", MinWeight: "abc", UnitPrice: "0"},
		{SourceRow: 3, Country: "Japan", ShippingMethod: "air", MinWeight: "5", MaxWeight: "2", UnitPrice: "10"},
		{SourceRow: 4, Country: "Japan", ShippingMethod: "air", MinWeight: "-1", UnitPrice: "10"},
	}
	result, err := svc.Reconcile(rows)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(result.ToAdd) != 0 || len(result.ToUpdate) != 0 {
		t.Fatalf("invalid rows should not produce changes")
	}

	fields := map[string][]int{}
	for _, rowErr := range result.Errors {
		fields[rowErr.Field] = append(fields[rowErr.Field], rowErr.SourceRow)
	}
	wantFields := map[string][]int{
		"country":         {2},
		"shipping_method": {2},
		"min_weight":      {2, 4},
		"max_weight":      {3},
		"unit_price":      {2},
	}
	for field, wantRows := range wantFields {
		gotRows := fields[field]
		if len(gotRows) != len(wantRows) {
			t.Fatalf("field %s want rows %v got %v", field, wantRows, gotRows)
		}
		for i := range wantRows {
			if gotRows[i] != wantRows[i] {
				t.Fatalf("field %s want rows %v got %v", field, wantRows, gotRows)
			}
		}
	}
}

func TestReconcileDuplicateKeyInBatch(t *testing.T) {
	svc, _ := setupRateServiceTest(t)

	rows := []RateRowInput{
		{SourceRow: 2, Country: "Japan", ShippingMethod: "air", MinWeight: "0", UnitPrice: "28"},
		{SourceRow: 3, Country: "japan", ShippingMethod: "Air", MinWeight: "0.00", UnitPrice: "30"},
	}
	result, err := svc.Reconcile(rows)
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}
	if len(result.ToAdd) != 1 {
		t.Fatalf("first row should still be added, got %d", len(result.ToAdd))
	}
	if len(result.Errors) != 1 {
		t.Fatalf("duplicate want 1 error got %+v", result.Errors)
	}
	dup := result.Errors[0]
	if dup.SourceRow != 3 || !strings.Contains(dup.Message, "与第 2 行重复") {
		t.Fatalf("unexpected duplicate error: %+v", dup)
	}
}

func TestApplyAllOrNothing(t *testing.T) {
	svc, db := setupRateServiceTest(t)

	rows := []RateRowInput{
		{SourceRow: 2, Country: "Japan", ShippingMethod: "air", MinWeight: "0", UnitPrice: "28"},
		{SourceRow: 3, Country: "Japan", ShippingMethod: "air", MinWeight: "10", UnitPrice: "bad"},
	}
	if _, err := svc.Apply(1, rows); !errors.Is(err, ErrRateBatchInvalid) {
		t.Fatalf("batch with errors want ErrRateBatchInvalid got %v", err)
	}
	var count int64
	db.Model(&models.ShippingRate{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed apply must write nothing, got %d rows", count)
	}
	db.Model(&models.RateChangeLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed apply must not log, got %d rows", count)
	}
}

func TestApplyUpsertsAndLogsOnce(t *testing.T) {
	svc, db := setupRateServiceTest(t)
	existing := createExistingRate(t, db, "Japan", "air", "0", "28")

	rows := []RateRowInput{
		{SourceRow: 2, Country: "Japan", ShippingMethod: "air", MinWeight: "0", UnitPrice: "26", Currency: "CNY", DeliveryDays: "3-5天"},
		{SourceRow: 3, Country: "Korea", ShippingMethod: "air", MinWeight: "0", UnitPrice: "22"},
	}
	result, err := svc.Apply(7, rows)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.AddedCount != 1 || result.UpdatedCount != 1 {
		t.Fatalf("apply want 1 add / 1 update got %d/%d", result.AddedCount, result.UpdatedCount)
	}
	if result.BatchID == "" {
		t.Fatalf("apply should assign a batch id")
	}

	// 更新沿用原主键
	var reloaded models.ShippingRate
	if err := db.First(&reloaded, existing.ID).Error; err != nil {
		t.Fatalf("reload rate failed: %v", err)
	}
	if reloaded.UnitPrice.String() != "26.00" {
		t.Fatalf("updated price want 26.00 got %s", reloaded.UnitPrice.String())
	}
	var rateCount int64
	db.Model(&models.ShippingRate{}).Count(&rateCount)
	if rateCount != 2 {
		t.Fatalf("rate count want 2 got %d", rateCount)
	}

	var logs []models.RateChangeLog
	if err := db.Find(&logs).Error; err != nil {
		t.Fatalf("list change logs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("change log count want 1 got %d", len(logs))
	}
	entry := logs[0]
	if entry.BatchID != result.BatchID || entry.OperatorID != 7 {
		t.Fatalf("unexpected change log: %+v", entry)
	}
	if entry.AddedCount != 1 || entry.UpdatedCount != 1 {
		t.Fatalf("change log counts want 1/1 got %d/%d", entry.AddedCount, entry.UpdatedCount)
	}
	if !strings.Contains(entry.Countries, "Japan") || !strings.Contains(entry.Countries, "Korea") {
		t.Fatalf("change log countries want Japan+Korea got %s", entry.Countries)
	}
}

func TestApplyNoChangesSkipsWrite(t *testing.T) {
	svc, db := setupRateServiceTest(t)
	createExistingRate(t, db, "Japan", "air", "0", "28")

	rows := []RateRowInput{
		{SourceRow: 2, Country: "Japan", ShippingMethod: "air", MinWeight: "0", UnitPrice: "28", Currency: "CNY", DeliveryDays: "3-5天"},
	}
	result, err := svc.Apply(1, rows)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if result.BatchID != "" || result.AddedCount != 0 || result.UpdatedCount != 0 {
		t.Fatalf("no-op apply want empty result got %+v", result)
	}
	var count int64
	db.Model(&models.RateChangeLog{}).Count(&count)
	if count != 0 {
		t.Fatalf("no-op apply must not log, got %d rows", count)
	}
}

func TestParseRateCSV(t *testing.T) {
	input := strings.Join([]string{
		"country,shipping_method,min_weight,max_weight,unit_price,currency,delivery_days",
		"Japan,air,0,10,28.00,CNY,3-5天",
		"Japan,air,10,,24.00,CNY,3-5天",
	}, "\n")

	rows, err := ParseRateCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("row count want 2 got %d", len(rows))
	}
	// source_row 对应文件行号，表头占第 1 行
	if rows[0].SourceRow != 2 || rows[1].SourceRow != 3 {
		t.Fatalf("source rows want 2,3 got %d,%d", rows[0].SourceRow, rows[1].SourceRow)
	}
	if rows[0].Country != "Japan" || rows[0].MaxWeight != "10" || rows[0].UnitPrice != "28.00" {
		t.Fatalf("unexpected first row: %+v", rows[0])
	}
	if rows[1].MaxWeight != "" {
		t.Fatalf("open-ended tier should keep empty max_weight, got %q", rows[1].MaxWeight)
	}
}

func TestParseRateCSVWithoutHeader(t *testing.T) {
	rows, err := ParseRateCSV(strings.NewReader("Japan,air,0,,28.00,CNY,3-5天\n"))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(rows) != 1 || rows[0].SourceRow != 1 {
		t.Fatalf("headerless file should keep line 1, got %+v", rows)
	}
}
