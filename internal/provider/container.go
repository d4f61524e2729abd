package provider

import (
	"github.com/jiyun-go/internal/authz"
	"github.com/jiyun-go/internal/cache"
	"github.com/jiyun-go/internal/config"
	"github.com/jiyun-go/internal/logger"
	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/queue"
	"github.com/jiyun-go/internal/repository"
	"github.com/jiyun-go/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo    repository.UserRepository
	PointsRepo  repository.PointsRepository
	CompRepo    repository.CompensationRepository
	OrderRepo   repository.OrderRepository
	ProductRepo repository.ProductRepository
	BidRepo     repository.BidRepository
	RateRepo    repository.RateRepository
	PostRepo    repository.PostRepository

	// Services
	AuthzService   *authz.Service
	AuthService    *service.AuthService
	UserService    *service.UserService
	PointsService  *service.PointsService
	FreightService *service.FreightService
	OrderService   *service.OrderService
	AuctionService *service.AuctionService
	ProductService *service.ProductService
	RateService    *service.RateService
	PostService    *service.PostService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.PointsRepo = repository.NewPointsRepository(db)
	c.CompRepo = repository.NewCompensationRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.BidRepo = repository.NewBidRepository(db)
	c.RateRepo = repository.NewRateRepository(db)
	c.PostRepo = repository.NewPostRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.UserService = service.NewUserService(c.UserRepo)
	c.PointsService = service.NewPointsService(c.UserRepo, c.PointsRepo, c.CompRepo, c.Config)
	if c.QueueClient != nil {
		c.PointsService.AttachCompensationQueue(c.QueueClient)
	}
	c.FreightService = service.NewFreightService(c.RateRepo, c.Config)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.PointsService, c.FreightService)
	c.AuctionService = service.NewAuctionService(c.ProductRepo, c.BidRepo, c.OrderRepo, c.PointsService)
	c.ProductService = service.NewProductService(c.ProductRepo, c.BidRepo, c.QueueClient)
	c.RateService = service.NewRateService(c.RateRepo)
	c.PostService = service.NewPostService(c.PostRepo)
}
