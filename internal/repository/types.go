package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderType   string
	OrderNo     string
	TrackingNo  string
	Country     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PointsHistoryListFilter 查询积分流水的过滤条件
type PointsHistoryListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Reason      string
	RefID       uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ProductListFilter 查询商城商品列表的过滤条件
type ProductListFilter struct {
	Page        int
	PageSize    int
	Category    string
	Search      string
	IsAuction   *bool
	OnlyActive  bool
	OnlyOnSale  bool
}

// BidListFilter 查询出价记录的过滤条件
type BidListFilter struct {
	Page      int
	PageSize  int
	ProductID uint
	UserID    uint
}

// RateListFilter 查询运费价目的过滤条件
type RateListFilter struct {
	Page           int
	PageSize       int
	Country        string
	ShippingMethod string
}

// PostListFilter 查询文章列表的过滤条件
type PostListFilter struct {
	Page          int
	PageSize      int
	Type          string
	Search        string
	OnlyPublished bool
	OrderBy       string
}

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Role        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CompensationListFilter 查询补偿记录的过滤条件
type CompensationListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Status   string
}
