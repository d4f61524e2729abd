package admin

import (
	"strconv"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"

	"github.com/gin-gonic/gin"
)

// BatchUserStatusRequest 批量用户状态请求
type BatchUserStatusRequest struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
	Status  string `json:"status" binding:"required"`
}

// AdjustPointsRequest 积分调整请求
type AdjustPointsRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Remark string `json:"remark"`
}

// ListUsers 用户列表
func (h *Handler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	users, total, err := h.UserService.ListUsers(repository.UserListFilter{
		Page:     page,
		PageSize: pageSize,
		Keyword:  c.Query("keyword"),
		Role:     c.Query("role"),
		Status:   c.Query("status"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询用户失败", err)
		return
	}
	response.SuccessWithPage(c, users, response.BuildPagination(page, pageSize, total))
}

// GetUser 用户详情
func (h *Handler) GetUser(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := h.UserService.GetUser(userID)
	if err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, response.CodeInternal, "查询用户失败")
		return
	}
	response.Success(c, user)
}

// BatchUpdateUserStatus 批量启用/禁用用户
func (h *Handler) BatchUpdateUserStatus(c *gin.Context) {
	var req BatchUserStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	if err := h.UserService.BatchSetStatus(req.UserIDs, req.Status); err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, response.CodeInternal, "更新用户状态失败")
		return
	}
	response.SuccessWithMsg(c, "用户状态已更新", nil)
}

// AdjustUserPoints 管理员调整用户积分（正数加，负数减）
func (h *Handler) AdjustUserPoints(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req AdjustPointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return
	}
	entry, err := h.PointsService.AdminAdjust(userID, req.Delta, req.Remark)
	if err != nil {
		respondWithMappedError(c, err, adminUserErrorRules, response.CodeInternal, "调整积分失败")
		return
	}
	response.SuccessWithMsg(c, "积分已调整", entry)
}

// ListUserPointsHistories 指定用户积分流水
func (h *Handler) ListUserPointsHistories(c *gin.Context) {
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	histories, total, err := h.PointsService.ListHistories(repository.PointsHistoryListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Reason:   c.Query("reason"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询积分流水失败", err)
		return
	}
	response.SuccessWithPage(c, histories, response.BuildPagination(page, pageSize, total))
}
