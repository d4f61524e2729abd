package service

import (
	"errors"
	"fmt"
)

// 服务层哨兵错误，处理器通过 errors.Is 映射为响应码。
var (
	ErrNotFound           = errors.New("记录不存在")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrInvalidPassword    = errors.New("原密码错误")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrEmailExists        = errors.New("邮箱已被注册")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("账号已被禁用")

	ErrPointsInvalidAmount = errors.New("积分数量无效")
	ErrPointsInsufficient  = errors.New("积分余额不足")
	ErrAlreadySignedIn     = errors.New("今日已签到")

	ErrOrderNotFound        = errors.New("订单不存在")
	ErrOrderStatusInvalid   = errors.New("订单状态不允许该操作")
	ErrOrderAlreadySettled  = errors.New("订单已结算")
	ErrOrderUpdateFailed    = errors.New("订单更新失败")
	ErrWaybillLocked        = errors.New("当前状态不允许修改运单信息")
	ErrCancelRequestPending = errors.New("已有待处理的取消申请")
	ErrCancelRequestMissing = errors.New("没有待处理的取消申请")
	ErrCancelSelfResolve    = errors.New("取消申请需由对方处理")

	ErrProductNotFound        = errors.New("商品不存在")
	ErrProductNotAuction      = errors.New("商品不是竞拍商品")
	ErrProductOutOfStock      = errors.New("商品库存不足")
	ErrProductNotExchangeable = errors.New("商品不支持直接兑换")
	ErrAuctionEnded           = errors.New("竞拍已截止")
	ErrAuctionNotEnded        = errors.New("竞拍尚未截止")
	ErrAuctionAlreadySettled  = errors.New("竞拍已结拍")
	ErrAuctionNoBids          = errors.New("竞拍没有有效出价")
	ErrBidTooLow              = errors.New("出价低于当前最高价")

	ErrRateNotFound     = errors.New("价目不存在")
	ErrRateBatchInvalid = errors.New("价目批次包含无效行，已整批拒绝")

	ErrCompensationNotFound = errors.New("补偿记录不存在")
)

// InsufficientBalanceError 积分不足错误，携带缺口数量用于前端提示。
type InsufficientBalanceError struct {
	Required  int64 // 本次需要的积分
	Balance   int64 // 当前余额
	Shortfall int64 // 缺口 = Required - Balance
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("积分余额不足，还差 %d 积分", e.Shortfall)
}

// Unwrap 支持 errors.Is(err, ErrPointsInsufficient)
func (e *InsufficientBalanceError) Unwrap() error {
	return ErrPointsInsufficient
}

func newInsufficientBalanceError(required, balance int64) *InsufficientBalanceError {
	return &InsufficientBalanceError{
		Required:  required,
		Balance:   balance,
		Shortfall: required - balance,
	}
}
