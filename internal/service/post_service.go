package service

import (
	"strings"
	"time"

	"github.com/jiyun-go/internal/models"
	"github.com/jiyun-go/internal/repository"
)

// PostService 公告/帮助文章服务
type PostService struct {
	postRepo repository.PostRepository
}

// PostInput 文章创建/更新输入
type PostInput struct {
	Slug        string
	Type        string
	Title       string
	Summary     string
	Content     string
	Thumbnail   string
	IsPublished bool
	SortOrder   int
}

// NewPostService 创建文章服务
func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// CreatePost 创建文章
func (s *PostService) CreatePost(input PostInput) (*models.Post, error) {
	post := &models.Post{
		Slug:        strings.TrimSpace(input.Slug),
		Type:        strings.TrimSpace(input.Type),
		Title:       strings.TrimSpace(input.Title),
		Summary:     input.Summary,
		Content:     input.Content,
		Thumbnail:   strings.TrimSpace(input.Thumbnail),
		IsPublished: input.IsPublished,
		SortOrder:   input.SortOrder,
	}
	if post.IsPublished {
		now := time.Now()
		post.PublishedAt = &now
	}
	if err := s.postRepo.Create(post); err != nil {
		return nil, err
	}
	return post, nil
}

// UpdatePost 更新文章，首次发布时记录发布时间
func (s *PostService) UpdatePost(id uint, input PostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	post.Slug = strings.TrimSpace(input.Slug)
	post.Type = strings.TrimSpace(input.Type)
	post.Title = strings.TrimSpace(input.Title)
	post.Summary = input.Summary
	post.Content = input.Content
	post.Thumbnail = strings.TrimSpace(input.Thumbnail)
	post.SortOrder = input.SortOrder
	if input.IsPublished && !post.IsPublished && post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
	}
	post.IsPublished = input.IsPublished
	if err := s.postRepo.Update(post); err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost 删除文章
func (s *PostService) DeletePost(id uint) error {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return err
	}
	if post == nil {
		return ErrNotFound
	}
	return s.postRepo.Delete(id)
}

// GetPost 按 ID 获取文章
func (s *PostService) GetPost(id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, ErrNotFound
	}
	return post, nil
}

// GetPublishedBySlug 前台按 slug 获取已发布文章
func (s *PostService) GetPublishedBySlug(slug string) (*models.Post, error) {
	post, err := s.postRepo.GetBySlug(slug)
	if err != nil {
		return nil, err
	}
	if post == nil || !post.IsPublished {
		return nil, ErrNotFound
	}
	return post, nil
}

// ListPosts 分页查询文章
func (s *PostService) ListPosts(filter repository.PostListFilter) ([]models.Post, int64, error) {
	return s.postRepo.List(filter)
}
