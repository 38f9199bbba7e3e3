// Package service 提供了搜索相关的业务逻辑。
package service

import (
	"context"
	"strings"

	"angeldesk-go/internal/model"
	"angeldesk-go/pkg/es"
)

const defaultTopK = 10

// SearchService 接口定义了全文搜索操作。
// 索引由摄取管道维护，这里只做查询侧的封装。
type SearchService interface {
	Search(ctx context.Context, query string, topK int, userID uint) ([]model.SearchResponseDTO, error)
}

type searchService struct{}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService() SearchService {
	return &searchService{}
}

// Search 在用户可见的文档范围内做全文检索。
func (s *searchService) Search(ctx context.Context, query string, topK int, userID uint) ([]model.SearchResponseDTO, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []model.SearchResponseDTO{}, nil
	}
	if topK <= 0 || topK > 100 {
		topK = defaultTopK
	}
	return es.Search(ctx, query, topK, userID)
}
