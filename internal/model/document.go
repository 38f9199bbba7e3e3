// Package model 包含了应用的数据模型定义。
package model

// FileType 是预览渲染器能识别的文件类别。
type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeImage   FileType = "image"
	FileTypeText    FileType = "text"
	FileTypeWord    FileType = "word"
	FileTypeExcel   FileType = "excel"
	FileTypeUnknown FileType = "unknown"
)

// DocumentRef 描述一个待预览的文件：展示名、声明的 MIME 类型、
// 可选的存储路径以及可选的预提取文本。它是不可变的输入，
// 预览器据此产生的所有产物都是会话级的临时对象。
type DocumentRef struct {
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	StoragePath string `json:"storagePath"`
	InlineText  string `json:"inlineText"`
}
