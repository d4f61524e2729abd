package public

import (
	"strconv"
	"strings"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPosts 公告/帮助列表（仅已发布）
func (h *Handler) ListPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	posts, total, err := h.PostService.ListPosts(repository.PostListFilter{
		Page:          page,
		PageSize:      pageSize,
		Type:          c.Query("type"),
		Search:        c.Query("search"),
		OnlyPublished: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询文章失败", err)
		return
	}
	response.SuccessWithPage(c, posts, response.BuildPagination(page, pageSize, total))
}

// GetPostBySlug 按 slug 获取已发布文章
func (h *Handler) GetPostBySlug(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "文章标识不能为空", nil)
		return
	}
	post, err := h.PostService.GetPublishedBySlug(slug)
	if err != nil {
		respondWithMappedError(c, err, authErrorRules, response.CodeInternal, "查询文章失败")
		return
	}
	response.Success(c, post)
}
