package main

import (
	"fmt"
	"time"

	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/models"

	"github.com/shopspring/decimal"
)

// 演示数据初始化：价目表、积分商城商品、公告文章。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库连接失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	seedRates(stdLog.Printf)
	seedProducts(stdLog.Printf)
	seedPosts(stdLog.Printf)

	fmt.Println("演示数据初始化完成")
}

func money(s string) models.Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return models.NewMoneyFromDecimal(d)
}

func moneyPtr(s string) *models.Money {
	m := money(s)
	return &m
}

func seedRates(logf func(string, ...interface{})) {
	rates := []models.ShippingRate{
		{Country: "Japan", ShippingMethod: "air", MinWeight: money("0.00"), MaxWeight: moneyPtr("10.00"), UnitPrice: money("28.00"), Currency: "CNY", DeliveryDays: "3-5天"},
		{Country: "Japan", ShippingMethod: "air", MinWeight: money("10.00"), UnitPrice: money("24.00"), Currency: "CNY", DeliveryDays: "3-5天"},
		{Country: "Japan", ShippingMethod: "sea", MinWeight: money("0.00"), UnitPrice: money("9.50"), Currency: "CNY", DeliveryDays: "15-25天"},
		{Country: "United States", ShippingMethod: "air", MinWeight: money("0.00"), MaxWeight: moneyPtr("5.00"), UnitPrice: money("65.00"), Currency: "CNY", DeliveryDays: "5-8天"},
		{Country: "United States", ShippingMethod: "air", MinWeight: money("5.00"), UnitPrice: money("58.00"), Currency: "CNY", DeliveryDays: "5-8天"},
		{Country: "Australia", ShippingMethod: "sea", MinWeight: money("0.00"), UnitPrice: money("12.00"), Currency: "CNY", DeliveryDays: "20-30天"},
	}
	for _, rate := range rates {
		var count int64
		models.DB.Model(&models.ShippingRate{}).
			Where("country = ? AND shipping_method = ? AND min_weight = ?", rate.Country, rate.ShippingMethod, rate.MinWeight).
			Count(&count)
		if count > 0 {
			continue
		}
		if err := models.DB.Create(&rate).Error; err != nil {
			logf("价目写入失败 %s/%s: %v", rate.Country, rate.ShippingMethod, err)
		}
	}
	logf("价目表初始化完成")
}

func seedProducts(logf func(string, ...interface{})) {
	endTime := time.Now().Add(72 * time.Hour)
	buyout := int64(5000)
	products := []models.Product{
		{
			Name:             "行李秤",
			Description:      "50kg 量程便携行李秤",
			Category:         "accessories",
			PointsRequired:   800,
			FixedShippingFee: money("15.00"),
			Stock:            100,
			IsActive:         true,
			SortOrder:        10,
		},
		{
			Name:             "真空压缩袋套装",
			Description:      "8 件装，含手泵",
			Category:         "accessories",
			PointsRequired:   1200,
			FixedShippingFee: money("20.00"),
			Stock:            50,
			IsActive:         true,
			SortOrder:        20,
		},
		{
			Name:             "限量联名手办",
			Description:      "竞拍专场，先出价者同价优先",
			Category:         "collectibles",
			PointsRequired:   2000,
			DirectBuyPoints:  &buyout,
			FixedShippingFee: money("30.00"),
			Stock:            1,
			IsAuction:        true,
			EndTime:          &endTime,
			IsActive:         true,
			SortOrder:        1,
		},
	}
	for _, product := range products {
		var count int64
		models.DB.Model(&models.Product{}).Where("name = ?", product.Name).Count(&count)
		if count > 0 {
			continue
		}
		if err := models.DB.Create(&product).Error; err != nil {
			logf("商品写入失败 %s: %v", product.Name, err)
		}
	}
	logf("商品初始化完成")
}

func seedPosts(logf func(string, ...interface{})) {
	now := time.Now()
	posts := []models.Post{
		{
			Slug:        "getting-started",
			Type:        "faq",
			Title:       "集运下单流程说明",
			Summary:     "从提交包裹到签收的完整流程",
			Content:     "## 下单流程\n\n1. 提交包裹信息并填写运单\n2. 等待平台确认与报价\n3. 支付运费后等待出库\n4. 签收后自动返还积分",
			IsPublished: true,
			PublishedAt: &now,
			SortOrder:   10,
		},
		{
			Slug:        "points-rules",
			Type:        "notice",
			Title:       "积分规则公告",
			Summary:     "积分获取与使用说明",
			Content:     "订单完成后按运费整数部分返还积分，积分可用于商城兑换与竞拍。",
			IsPublished: true,
			PublishedAt: &now,
			SortOrder:   20,
		},
	}
	for _, post := range posts {
		var count int64
		models.DB.Model(&models.Post{}).Where("slug = ?", post.Slug).Count(&count)
		if count > 0 {
			continue
		}
		if err := models.DB.Create(&post).Error; err != nil {
			logf("文章写入失败 %s: %v", post.Slug, err)
		}
	}
	logf("文章初始化完成")
}
