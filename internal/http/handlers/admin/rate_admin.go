package admin

import (
	"strconv"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

// RateBatchRequest 价目对账/执行请求
type RateBatchRequest struct {
	Rows []service.RateRowInput `json:"rows" binding:"required"`
}

// ListRates 价目列表
func (h *Handler) ListRates(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rates, total, err := h.RateService.ListRates(repository.RateListFilter{
		Page:           page,
		PageSize:       pageSize,
		Country:        c.Query("country"),
		ShippingMethod: c.Query("shipping_method"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询价目失败", err)
		return
	}
	response.SuccessWithPage(c, rates, response.BuildPagination(page, pageSize, total))
}

// ReconcileRates 价目对账预览（纯 diff，不落库）
// 支持 JSON 行数组或 multipart CSV 文件两种输入。
func (h *Handler) ReconcileRates(c *gin.Context) {
	rows, ok := h.readRateRows(c)
	if !ok {
		return
	}
	result, err := h.RateService.Reconcile(rows)
	if err != nil {
		respondWithMappedError(c, err, adminRateErrorRules, response.CodeInternal, "价目对账失败")
		return
	}
	response.Success(c, result)
}

// ApplyRates 确认执行对账结果（全量成败）
func (h *Handler) ApplyRates(c *gin.Context) {
	operatorID, ok := getOperatorID(c)
	if !ok {
		return
	}
	rows, ok := h.readRateRows(c)
	if !ok {
		return
	}
	result, err := h.RateService.Apply(operatorID, rows)
	if err != nil {
		respondWithMappedError(c, err, adminRateErrorRules, response.CodeInternal, "价目执行失败")
		return
	}
	response.SuccessWithMsg(c, "价目已更新", result)
}

// ListRateChangeLogs 价目变更审计日志
func (h *Handler) ListRateChangeLogs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	logs, total, err := h.RateService.ListChangeLogs(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "查询审计日志失败", err)
		return
	}
	response.SuccessWithPage(c, logs, response.BuildPagination(page, pageSize, total))
}

func (h *Handler) readRateRows(c *gin.Context) ([]service.RateRowInput, bool) {
	if file, err := c.FormFile("file"); err == nil && file != nil {
		opened, err := file.Open()
		if err != nil {
			respondError(c, response.CodeBadRequest, "读取上传文件失败", err)
			return nil, false
		}
		defer opened.Close()
		rows, err := service.ParseRateCSV(opened)
		if err != nil {
			respondError(c, response.CodeBadRequest, "CSV 解析失败", err)
			return nil, false
		}
		return rows, true
	}

	var req RateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return nil, false
	}
	return req.Rows, true
}
