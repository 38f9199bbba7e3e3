// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"angeldesk-go/internal/config"
	"angeldesk-go/internal/model"
	"angeldesk-go/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// indexName 保存配置的索引名，供写入和查询使用。
var indexName string

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	indexName = esCfg.IndexName
	return createIndexIfNotExists(esCfg.IndexName)
}

// createIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 摄取管道产出的文档：文件元数据 + AI 摘要 + 提取的全文
	mapping := `{
		"mappings": {
			"properties": {
				"file_id": { "type": "keyword" },
				"file_name": { "type": "text" },
				"deal_id": { "type": "keyword" },
				"company_id": { "type": "keyword" },
				"kind": { "type": "keyword" },
				"summary": { "type": "text" },
				"text_content": { "type": "text" },
				"user_id": { "type": "long" },
				"is_public": { "type": "boolean" },
				"created_at": { "type": "date" }
			}
		}
	}`

	createRes, err := ESClient.Indices.Create(indexName, ESClient.Indices.Create.WithBody(strings.NewReader(mapping)))
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer createRes.Body.Close()
	if createRes.IsError() {
		return fmt.Errorf("创建索引 '%s' 失败: %s", indexName, createRes.String())
	}
	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexDocument 将一个摄取完成的文档写入索引。
func IndexDocument(ctx context.Context, doc model.EsDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("序列化索引文档失败: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: doc.FileID,
		Body:       bytes.NewReader(body),
		Refresh:    "false",
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("写入索引失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("写入索引返回错误: %s", res.String())
	}
	return nil
}

// UpdateVisibility 对已索引的文档做部分更新，切换它在搜索中的公开可见性。
func UpdateVisibility(ctx context.Context, fileID string, isPublic bool) error {
	body := fmt.Sprintf(`{"doc":{"is_public":%t}}`, isPublic)
	req := esapi.UpdateRequest{
		Index:      indexName,
		DocumentID: fileID,
		Body:       strings.NewReader(body),
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("更新索引可见性失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("更新索引可见性返回错误: %s", res.String())
	}
	return nil
}

// Search 对摘要与全文执行 match 查询，按所有者或公开范围过滤。
func Search(ctx context.Context, query string, topK int, userID uint) ([]model.SearchResponseDTO, error) {
	esQuery := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"file_name^2", "summary^2", "text_content"},
					},
				},
				"filter": map[string]interface{}{
					"bool": map[string]interface{}{
						"should": []map[string]interface{}{
							{"term": map[string]interface{}{"user_id": userID}},
							{"term": map[string]interface{}{"is_public": true}},
						},
						"minimum_should_match": 1,
					},
				},
			},
		},
		"size": topK,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("构建搜索查询失败: %w", err)
	}

	res, err := ESClient.Search(
		ESClient.Search.WithContext(ctx),
		ESClient.Search.WithIndex(indexName),
		ESClient.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("执行搜索失败: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("搜索返回错误: %s", res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Score  float64          `json:"_score"`
				Source model.EsDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("解析搜索响应失败: %w", err)
	}

	results := make([]model.SearchResponseDTO, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		results = append(results, model.SearchResponseDTO{
			FileID:    hit.Source.FileID,
			FileName:  hit.Source.FileName,
			DealID:    hit.Source.DealID,
			CompanyID: hit.Source.CompanyID,
			Kind:      hit.Source.Kind,
			Summary:   hit.Source.Summary,
			Score:     hit.Score,
		})
	}
	return results, nil
}
