package constants

// 订单状态常量（数据库存储中文状态值）
const (
	OrderStatusPendingConfirm  = "待确认"
	OrderStatusPendingPayment  = "待付款"
	OrderStatusPendingShipFee  = "待支付运费"
	OrderStatusPaid            = "已支付"
	OrderStatusPendingDispatch = "待出库"
	OrderStatusWarehoused      = "已入库"
	OrderStatusInTransit       = "运输中"
	OrderStatusCompleted       = "已完成"
	OrderStatusCanceled        = "已取消"
)

// 订单类型常量
const (
	OrderTypeLogistics = "logistics"
	OrderTypeMarket    = "market"
)

// 取消申请方常量
const (
	CancelRequestedByNone     = ""
	CancelRequestedByCustomer = "customer"
	CancelRequestedByAdmin    = "admin"
)

// 取消处理动作常量
const (
	CancelResolveApprove = "approve"
	CancelResolveReject  = "reject"
)

// 积分变动类型常量
const (
	PointsReasonSignIn          = "sign_in"
	PointsReasonOrderSettle     = "order_settle"
	PointsReasonAuctionBid      = "auction_bid"
	PointsReasonAuctionRefund   = "auction_refund"
	PointsReasonAuctionExchange = "auction_exchange"
	PointsReasonAdminAdjust     = "admin_adjust"
)

// 补偿记录状态常量
const (
	CompensationStatusPending = "pending"
	CompensationStatusDone    = "done"
)

// 商品分类常量
const (
	ProductCategoryGeneral  = "general"
	ProductCategoryTreasure = "treasure"
)

// 文章类型常量
const (
	PostTypeNotice = "notice"
	PostTypeFAQ    = "faq"
)

// 用户角色常量
const (
	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 队列常量
const (
	QueueDefault          = "default"
	TaskAuctionSettle     = "auction:settle"
	TaskCompensationRetry = "compensation:retry"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "jy"
)

// 币种常量
const (
	RateCurrencyDefault = "CNY"
)
