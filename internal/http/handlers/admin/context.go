package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/jiyun-go/internal/http/handlers/shared"
	"github.com/jiyun-go/internal/http/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getOperatorID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "user_id")
}

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, msg string, err error) {
	handlershared.RespondError(c, code, msg, err)
}

func normalizePagination(page, pageSize int) (int, int) {
	return handlershared.NormalizePagination(page, pageSize)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "ID参数无效", err)
		return 0, false
	}
	return uint(id), true
}
