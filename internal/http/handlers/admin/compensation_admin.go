package admin

import (
	"strconv"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListCompensations 待补偿记录列表
func (h *Handler) ListCompensations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	records, total, err := h.PointsService.ListCompensations(repository.CompensationListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询补偿记录失败", err)
		return
	}
	response.SuccessWithPage(c, records, response.BuildPagination(page, pageSize, total))
}

// RetryCompensation 手工重试一条补偿记录
func (h *Handler) RetryCompensation(c *gin.Context) {
	compensationID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.PointsService.RetryCompensation(compensationID); err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, response.CodeInternal, "补偿重试失败")
		return
	}
	response.SuccessWithMsg(c, "补偿已返还", nil)
}
