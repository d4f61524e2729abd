package admin

import (
	"errors"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

type mappedHandlerError struct {
	target error
	code   int
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, err.Error(), nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var adminOrderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound},
	{target: service.ErrOrderStatusInvalid, code: response.CodeConflict},
	{target: service.ErrOrderAlreadySettled, code: response.CodeConflict},
	{target: service.ErrOrderUpdateFailed, code: response.CodeConflict},
	{target: service.ErrCancelRequestPending, code: response.CodeConflict},
	{target: service.ErrCancelRequestMissing, code: response.CodeConflict},
	{target: service.ErrCancelSelfResolve, code: response.CodeConflict},
	{target: service.ErrUserNotFound, code: response.CodeNotFound},
	{target: service.ErrPointsInsufficient, code: response.CodeConflict},
}

var adminProductErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound},
	{target: service.ErrProductNotAuction, code: response.CodeBadRequest},
	{target: service.ErrAuctionNotEnded, code: response.CodeConflict},
	{target: service.ErrAuctionAlreadySettled, code: response.CodeConflict},
	{target: service.ErrAuctionNoBids, code: response.CodeConflict},
}

var adminRateErrorRules = []mappedHandlerError{
	{target: service.ErrRateBatchInvalid, code: response.CodeBadRequest},
	{target: service.ErrRateNotFound, code: response.CodeNotFound},
}

var adminPostErrorRules = []mappedHandlerError{
	{target: service.ErrNotFound, code: response.CodeNotFound},
}

var adminUserErrorRules = []mappedHandlerError{
	{target: service.ErrUserNotFound, code: response.CodeNotFound},
	{target: service.ErrPointsInvalidAmount, code: response.CodeBadRequest},
	{target: service.ErrPointsInsufficient, code: response.CodeConflict},
	{target: service.ErrCompensationNotFound, code: response.CodeNotFound},
	{target: service.ErrNotFound, code: response.CodeNotFound},
}
