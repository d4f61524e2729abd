package public

import (
	"errors"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	// 余额不足单独处理：响应要携带缺口数据
	var insufficient *service.InsufficientBalanceError
	if errors.As(err, &insufficient) {
		respondErrorWithData(c, response.CodeConflict, insufficient.Error(), gin.H{
			"required":  insufficient.Required,
			"balance":   insufficient.Balance,
			"shortfall": insufficient.Shortfall,
		}, nil)
		return
	}
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, err.Error(), nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound},
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict},
	{target: service.ErrWaybillLocked, code: response.CodeConflict},
	{target: service.ErrCancelRequestPending, code: response.CodeConflict},
	{target: service.ErrCancelRequestMissing, code: response.CodeConflict},
	{target: service.ErrCancelSelfResolve, code: response.CodeConflict},
	{target: service.ErrRateNotFound, code: response.CodeNotFound},
	{target: service.ErrUserNotFound, code: response.CodeNotFound},
}

var marketErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound},
	{target: service.ErrProductNotAuction, code: response.CodeBadRequest},
	{target: service.ErrProductNotExchangeable, code: response.CodeBadRequest},
	{target: service.ErrProductOutOfStock, code: response.CodeConflict},
	{target: service.ErrAuctionEnded, code: response.CodeConflict},
	{target: service.ErrBidTooLow, code: response.CodeBadRequest},
	{target: service.ErrPointsInvalidAmount, code: response.CodeBadRequest},
	{target: service.ErrPointsInsufficient, code: response.CodeConflict},
}

var pointsErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound},
	{target: service.ErrAlreadySignedIn, code: response.CodeConflict},
	{target: service.ErrPointsInvalidAmount, code: response.CodeBadRequest},
	{target: service.ErrPointsInsufficient, code: response.CodeConflict},
}

var authErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidCredentials, code: response.CodeUnauthorized},
	{target: service.ErrUserDisabled, code: response.CodeForbidden},
	{target: service.ErrEmailExists, code: response.CodeConflict},
	{target: service.ErrWeakPassword, code: response.CodeBadRequest},
	{target: service.ErrInvalidPassword, code: response.CodeBadRequest},
	{target: service.ErrNotFound, code: response.CodeNotFound},
}
