package admin

import (
	"strconv"

	"github.com/jiyun-go/internal/http/response"
	"github.com/jiyun-go/internal/repository"
	"github.com/jiyun-go/internal/service"

	"github.com/gin-gonic/gin"
)

// PostRequest 文章创建/更新请求
type PostRequest struct {
	Slug        string `json:"slug" binding:"required"`
	Type        string `json:"type"`
	Title       string `json:"title" binding:"required"`
	Summary     string `json:"summary"`
	Content     string `json:"content"`
	Thumbnail   string `json:"thumbnail"`
	IsPublished bool   `json:"is_published"`
	SortOrder   int    `json:"sort_order"`
}

// ListAdminPosts 文章列表（含未发布）
func (h *Handler) ListAdminPosts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	posts, total, err := h.PostService.ListPosts(repository.PostListFilter{
		Page:     page,
		PageSize: pageSize,
		Type:     c.Query("type"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "查询文章失败", err)
		return
	}
	response.SuccessWithPage(c, posts, response.BuildPagination(page, pageSize, total))
}

// GetAdminPost 文章详情
func (h *Handler) GetAdminPost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	post, err := h.PostService.GetPost(postID)
	if err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, response.CodeInternal, "查询文章失败")
		return
	}
	response.Success(c, post)
}

// CreatePost 创建文章
func (h *Handler) CreatePost(c *gin.Context) {
	input, ok := bindPostInput(c)
	if !ok {
		return
	}
	post, err := h.PostService.CreatePost(input)
	if err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, response.CodeInternal, "创建文章失败")
		return
	}
	response.Success(c, post)
}

// UpdatePost 更新文章
func (h *Handler) UpdatePost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	input, ok := bindPostInput(c)
	if !ok {
		return
	}
	post, err := h.PostService.UpdatePost(postID, input)
	if err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, response.CodeInternal, "更新文章失败")
		return
	}
	response.Success(c, post)
}

// DeletePost 删除文章
func (h *Handler) DeletePost(c *gin.Context) {
	postID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.PostService.DeletePost(postID); err != nil {
		respondWithMappedError(c, err, adminPostErrorRules, response.CodeInternal, "删除文章失败")
		return
	}
	response.SuccessWithMsg(c, "文章已删除", nil)
}

func bindPostInput(c *gin.Context) (service.PostInput, bool) {
	var req PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数错误", err)
		return service.PostInput{}, false
	}
	return service.PostInput{
		Slug:        req.Slug,
		Type:        req.Type,
		Title:       req.Title,
		Summary:     req.Summary,
		Content:     req.Content,
		Thumbnail:   req.Thumbnail,
		IsPublished: req.IsPublished,
		SortOrder:   req.SortOrder,
	}, true
}
