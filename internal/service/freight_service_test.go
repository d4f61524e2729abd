package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupFreightServiceTest(t *testing.T, minChargeWeight string) (*FreightService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:freight_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.ShippingRate{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cfg := &config.Config{}
	cfg.Freight.MinChargeWeight = minChargeWeight
	return NewFreightService(repository.NewRateRepository(db), cfg), db
}

func createFreightRate(t *testing.T, db *gorm.DB, country, method, minWeight, maxWeight, unitPrice string) {
	t.Helper()
	rate := models.ShippingRate{
		Country:        country,
		ShippingMethod: method,
		MinWeight:      mustMoney(t, minWeight),
		UnitPrice:      mustMoney(t, unitPrice),
		Currency:       "CNY",
		DeliveryDays:   "3-5天",
	}
	if maxWeight != "" {
		max := mustMoney(t, maxWeight)
		rate.MaxWeight = &max
	}
	if err := db.Create(&rate).Error; err != nil {
		t.Fatalf("create rate failed: %v", err)
	}
}

func TestQuotePicksTierByWeight(t *testing.T) {
	svc, db := setupFreightServiceTest(t, "")
	createFreightRate(t, db, "Japan", "air", "0", "10", "28")
	createFreightRate(t, db, "Japan", "air", "10", "", "24")

	cases := []struct {
		weight    string
		wantPrice string
		wantFee   string
	}{
		{"2", "28.00", "56.00"},
		// 上限含边界
		{"10", "24.00", "240.00"},
		// 开放档
		{"15.5", "24.00", "372.00"},
	}
	for _, tc := range cases {
		quote, err := svc.Quote("Japan", "air", mustMoney(t, tc.weight))
		if err != nil {
			t.Fatalf("quote %s failed: %v", tc.weight, err)
		}
		if quote.UnitPrice.String() != tc.wantPrice {
			t.Fatalf("weight %s unit price want %s got %s", tc.weight, tc.wantPrice, quote.UnitPrice.String())
		}
		if quote.Fee.String() != tc.wantFee {
			t.Fatalf("weight %s fee want %s got %s", tc.weight, tc.wantFee, quote.Fee.String())
		}
	}
}

func TestQuoteOverlappingTiersPicksHighestFloor(t *testing.T) {
	svc, db := setupFreightServiceTest(t, "")
	createFreightRate(t, db, "Japan", "air", "0", "", "28")
	createFreightRate(t, db, "Japan", "air", "10", "", "24")

	quote, err := svc.Quote("Japan", "air", mustMoney(t, "12"))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.UnitPrice.String() != "24.00" {
		t.Fatalf("overlap should pick highest floor, want 24.00 got %s", quote.UnitPrice.String())
	}
}

func TestQuoteMinChargeWeight(t *testing.T) {
	svc, db := setupFreightServiceTest(t, "1")
	createFreightRate(t, db, "Japan", "air", "0", "", "28")

	quote, err := svc.Quote("Japan", "air", mustMoney(t, "0.30"))
	if err != nil {
		t.Fatalf("quote failed: %v", err)
	}
	if quote.Weight.String() != "1.00" {
		t.Fatalf("charge weight want 1.00 got %s", quote.Weight.String())
	}
	if quote.Fee.String() != "28.00" {
		t.Fatalf("fee want 28.00 got %s", quote.Fee.String())
	}
}

func TestQuoteNotFound(t *testing.T) {
	svc, db := setupFreightServiceTest(t, "")
	createFreightRate(t, db, "Japan", "air", "0", "10", "28")

	if _, err := svc.Quote("Korea", "air", mustMoney(t, "2")); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("unknown country want ErrRateNotFound got %v", err)
	}
	if _, err := svc.Quote("Japan", "sea", mustMoney(t, "2")); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("unknown method want ErrRateNotFound got %v", err)
	}
	// 全部阶梯都覆盖不到的重量
	if _, err := svc.Quote("Japan", "air", mustMoney(t, "12")); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("uncovered weight want ErrRateNotFound got %v", err)
	}
	if _, err := svc.Quote("", "air", mustMoney(t, "2")); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("empty country want ErrRateNotFound got %v", err)
	}
	if _, err := svc.Quote("Japan", "air", mustMoney(t, "0")); !errors.Is(err, ErrRateNotFound) {
		t.Fatalf("zero weight want ErrRateNotFound got %v", err)
	}
}

func TestQuoteAllGroupsByMethod(t *testing.T) {
	svc, db := setupFreightServiceTest(t, "")
	createFreightRate(t, db, "Japan", "air", "0", "10", "28")
	createFreightRate(t, db, "Japan", "air", "10", "", "24")
	createFreightRate(t, db, "Japan", "sea", "0", "", "9.50")
	// 覆盖不到的方式不出现在结果里
	createFreightRate(t, db, "Japan", "rail", "20", "", "6")

	quotes, err := svc.QuoteAll("Japan", mustMoney(t, "5"))
	if err != nil {
		t.Fatalf("quote all failed: %v", err)
	}
	if len(quotes) != 2 {
		t.Fatalf("quote count want 2 got %d", len(quotes))
	}
	byMethod := map[string]FreightQuote{}
	for _, quote := range quotes {
		byMethod[quote.ShippingMethod] = quote
	}
	if byMethod["air"].Fee.String() != "140.00" {
		t.Fatalf("air fee want 140.00 got %s", byMethod["air"].Fee.String())
	}
	if byMethod["sea"].Fee.String() != "47.50" {
		t.Fatalf("sea fee want 47.50 got %s", byMethod["sea"].Fee.String())
	}
}

func TestListCountries(t *testing.T) {
	svc, db := setupFreightServiceTest(t, "")
	createFreightRate(t, db, "Japan", "air", "0", "", "28")
	createFreightRate(t, db, "Japan", "sea", "0", "", "9.50")
	createFreightRate(t, db, "Australia", "sea", "0", "", "12")

	countries, err := svc.ListCountries()
	if err != nil {
		t.Fatalf("list countries failed: %v", err)
	}
	if len(countries) != 2 {
		t.Fatalf("country count want 2 got %v", countries)
	}
}
