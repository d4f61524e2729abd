package public

import (
	"strconv"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetMyPoints 当前用户积分余额
func (h *Handler) GetMyPoints(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	balance, err := h.PointsService.GetBalance(uid)
	if err != nil {
		respondWithMappedError(c, err, pointsErrorRules, response.CodeInternal, "查询积分失败")
		return
	}
	response.Success(c, gin.H{"points": balance})
}

// GetMyPointsHistories 当前用户积分流水
func (h *Handler) GetMyPointsHistories(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	histories, total, err := h.PointsService.ListHistories(repository.PointsHistoryListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Reason:   c.Query("reason"),
	})
	if err != nil {
		respondWithMappedError(c, err, pointsErrorRules, response.CodeInternal, "查询积分流水失败")
		return
	}
	response.SuccessWithPage(c, histories, response.BuildPagination(page, pageSize, total))
}

// SignIn 每日签到
func (h *Handler) SignIn(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	entry, err := h.PointsService.SignIn(uid)
	if err != nil {
		respondWithMappedError(c, err, pointsErrorRules, response.CodeInternal, "签到失败")
		return
	}
	response.SuccessWithMsg(c, "签到成功", entry)
}
