package service

import (
	"testing"

	"angeldesk-go/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestDetectFileType(t *testing.T) {
	tests := []struct {
		name string
		ref  model.DocumentRef
		want model.FileType
	}{
		{"大写扩展名", model.DocumentRef{Name: "report.PDF"}, model.FileTypePDF},
		{"csv 按表格渲染而非文本", model.DocumentRef{Name: "data.csv", MimeType: "text/csv"}, model.FileTypeExcel},
		{"内联文本优先于一切", model.DocumentRef{Name: "note.txt", InlineText: "hi"}, model.FileTypeText},
		{"未知扩展名加 octet-stream", model.DocumentRef{Name: "mystery.bin", MimeType: "application/octet-stream"}, model.FileTypeUnknown},
		{"docx", model.DocumentRef{Name: "term-sheet.docx"}, model.FileTypeWord},
		{"图片扩展名", model.DocumentRef{Name: "cap-table.PNG"}, model.FileTypeImage},
		{"无扩展名时回退 MIME pdf", model.DocumentRef{Name: "deck", MimeType: "application/pdf"}, model.FileTypePDF},
		{"MIME word 子串", model.DocumentRef{Name: "memo", MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document"}, model.FileTypeWord},
		{"MIME spreadsheet 子串", model.DocumentRef{Name: "kpis", MimeType: "application/vnd.ms-excel"}, model.FileTypeExcel},
		{"MIME text 前缀", model.DocumentRef{Name: "readme", MimeType: "text/markdown"}, model.FileTypeText},
		{"MIME image 前缀", model.DocumentRef{Name: "logo", MimeType: "image/webp"}, model.FileTypeImage},
		{"扩展名胜过矛盾的 MIME", model.DocumentRef{Name: "deck.pdf", MimeType: "image/png"}, model.FileTypePDF},
		{"全空", model.DocumentRef{}, model.FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFileType(tt.ref))
		})
	}
}
