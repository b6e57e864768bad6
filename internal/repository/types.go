package repository

import "time"

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page        int
	PageSize    int
	Keyword     string
	Status      string
	RoleLevel   *int
	ParentID    *uint
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
	WithSKUs   bool
}

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	Status      string
	OrderNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// CommissionListFilter 查询佣金记录列表的过滤条件
type CommissionListFilter struct {
	Page           int
	PageSize       int
	UserID         uint
	OrderID        uint
	OrderNo        string
	Status         string
	CommissionType string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// RefundListFilter 查询退款申请列表的过滤条件
type RefundListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	OrderID     uint
	RefundNo    string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WithdrawalListFilter 查询提现申请列表的过滤条件
type WithdrawalListFilter struct {
	Page           int
	PageSize       int
	UserID         uint
	WithdrawalNo   string
	AccountKeyword string
	Status         string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
}

// NotificationListFilter 查询通知列表的过滤条件
type NotificationListFilter struct {
	Page       int
	PageSize   int
	UserID     uint
	Type       string
	UnreadOnly bool
}
