// Package service 包含了应用的业务逻辑层。
package service

import (
	"mime"
	"path/filepath"
	"strings"

	"angeldesk-go/internal/model"
)

// extensionTypes 把文件扩展名映射到渲染类别。扩展名判定优先于 MIME：
// 实际使用中存储服务经常把声明类型错标成 application/octet-stream，
// 文件名反而更可靠。
var extensionTypes = map[string]model.FileType{
	".pdf":  model.FileTypePDF,
	".doc":  model.FileTypeWord,
	".docx": model.FileTypeWord,
	".xls":  model.FileTypeExcel,
	".xlsx": model.FileTypeExcel,
	".csv":  model.FileTypeExcel,
	".txt":  model.FileTypeText,
	".jpg":  model.FileTypeImage,
	".jpeg": model.FileTypeImage,
	".png":  model.FileTypeImage,
	".gif":  model.FileTypeImage,
	".webp": model.FileTypeImage,
}

// DetectFileType 根据 DocumentRef 推断应使用哪种预览渲染器。
// 判定顺序固定：内联文本 > 扩展名 > MIME 子串 > unknown。
func DetectFileType(ref model.DocumentRef) model.FileType {
	// 1. 已有预提取文本的引用直接按文本渲染，完全跳过字节获取
	if ref.InlineText != "" {
		return model.FileTypeText
	}

	// 2. 扩展名（不区分大小写）
	ext := strings.ToLower(filepath.Ext(ref.Name))
	if t, ok := extensionTypes[ext]; ok {
		return t
	}

	// 3. 声明的 MIME 类型按子串匹配
	mimeType := strings.ToLower(ref.MimeType)
	switch {
	case mimeType == "":
		return model.FileTypeUnknown
	case strings.Contains(mimeType, "pdf"):
		return model.FileTypePDF
	case strings.Contains(mimeType, "word"),
		strings.Contains(mimeType, "officedocument.wordprocessing"):
		return model.FileTypeWord
	case strings.Contains(mimeType, "spreadsheet"),
		strings.Contains(mimeType, "excel"),
		strings.Contains(mimeType, "csv"):
		return model.FileTypeExcel
	case strings.HasPrefix(mimeType, "text/"):
		return model.FileTypeText
	case strings.HasPrefix(mimeType, "image/"):
		return model.FileTypeImage
	}

	return model.FileTypeUnknown
}

// mimeByName 根据文件名推断上传时写入对象存储的内容类型。
func mimeByName(fileName string) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
