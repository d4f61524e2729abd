package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jiyun-go/internal/authz"
	"github.com/jiyun-go/internal/cache"
	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/constants"
	adminhandlers "github.com/jiyun-go/internal/http/handlers/admin"
	publichandlers "github.com/jiyun-go/internal/http/handlers/public"
	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "登录尝试过于频繁",
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		// 公开接口
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/products/:id", publicHandler.GetProduct)
			public.GET("/products/:id/bids", publicHandler.ListProductBids)
			public.GET("/posts", publicHandler.ListPosts)
			public.GET("/posts/:slug", publicHandler.GetPostBySlug)
			public.GET("/freight/quote", publicHandler.QuoteFreight)
			public.GET("/freight/countries", publicHandler.ListFreightCountries)
			public.GET("/tracking/:tracking_no", publicHandler.TrackByNumber)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// 用户接口（需鉴权）
		user := apiV1.Group("")
		user.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetProfile)
			user.PUT("/me/profile", publicHandler.UpdateProfile)
			user.PUT("/me/password", publicHandler.ChangePassword)

			user.GET("/me/points", publicHandler.GetMyPoints)
			user.GET("/me/points/histories", publicHandler.GetMyPointsHistories)
			user.POST("/me/points/sign-in", publicHandler.SignIn)

			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.ListMyOrders)
			user.GET("/orders/:id", publicHandler.GetMyOrder)
			user.PUT("/orders/:id/waybill", publicHandler.UpdateMyWaybill)
			user.POST("/orders/:id/cancel", publicHandler.RequestCancelMyOrder)
			user.POST("/orders/:id/cancel/resolve", publicHandler.ResolveCancelMyOrder)

			user.POST("/products/:id/bids", publicHandler.PlaceBid)
			user.POST("/products/:id/exchange", publicHandler.ExchangeProduct)
		}

		// 管理端接口
		admin := apiV1.Group("/admin")
		admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo), AdminRBACMiddleware(c.AuthzService))
		{
			// 订单管理
			admin.GET("/orders", adminHandler.ListOrders)
			admin.GET("/orders/:id", adminHandler.GetOrder)
			admin.POST("/orders/:id/confirm-payment", adminHandler.ConfirmOrderPayment)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.POST("/orders/:id/settle", adminHandler.SettleOrder)
			admin.POST("/orders/:id/tracking", adminHandler.AddOrderTracking)
			admin.PUT("/orders/:id/tracking-no", adminHandler.SetOrderTrackingNo)
			admin.POST("/orders/:id/cancel", adminHandler.RequestOrderCancel)
			admin.POST("/orders/:id/cancel/resolve", adminHandler.ResolveOrderCancel)

			// 价目管理
			admin.GET("/rates", adminHandler.ListRates)
			admin.POST("/rates/reconcile", adminHandler.ReconcileRates)
			admin.POST("/rates/apply", adminHandler.ApplyRates)
			admin.GET("/rates/change-logs", adminHandler.ListRateChangeLogs)

			// 商品管理
			admin.GET("/products", adminHandler.ListAdminProducts)
			admin.GET("/products/:id", adminHandler.GetAdminProduct)
			admin.POST("/products", adminHandler.CreateProduct)
			admin.PUT("/products/:id", adminHandler.UpdateProduct)
			admin.DELETE("/products/:id", adminHandler.DeleteProduct)
			admin.POST("/products/:id/settle", adminHandler.SettleAuctionProduct)

			// 文章管理
			admin.GET("/posts", adminHandler.ListAdminPosts)
			admin.GET("/posts/:id", adminHandler.GetAdminPost)
			admin.POST("/posts", adminHandler.CreatePost)
			admin.PUT("/posts/:id", adminHandler.UpdatePost)
			admin.DELETE("/posts/:id", adminHandler.DeletePost)

			// 用户管理
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PUT("/users/batch-status", adminHandler.BatchUpdateUserStatus)
			admin.POST("/users/:id/points/adjust", adminHandler.AdjustUserPoints)
			admin.GET("/users/:id/points/histories", adminHandler.ListUserPointsHistories)

			// 积分补偿
			admin.GET("/compensations", adminHandler.ListCompensations)
			admin.POST("/compensations/:id/retry", adminHandler.RetryCompensation)

			// 权限管理
			admin.GET("/authz/me", adminHandler.GetAuthzMe)
			admin.GET("/authz/roles", adminHandler.ListAuthzRoles)
			admin.POST("/authz/roles", adminHandler.CreateAuthzRole)
			admin.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
			admin.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
			admin.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
			admin.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
			admin.GET("/authz/users/:id/roles", adminHandler.GetAuthzUserRoles)
			admin.PUT("/authz/users/:id/roles", adminHandler.SetAuthzUserRoles)
			admin.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
				response.Success(ctx, buildAdminPermissionCatalog(r))
			})
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
