package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"angeldesk-go/internal/model"
	"angeldesk-go/pkg/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func init() {
	log.Init("error", "console", "")
}

// fakeFetcher 记录访问顺序的内存存储区实现。
// visited 记录下载请求，stated 记录存在性探测。
type fakeFetcher struct {
	objects map[string]map[string][]byte // area -> objectName -> bytes
	visited []string
	stated  []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{objects: make(map[string]map[string][]byte)}
}

func (f *fakeFetcher) put(area, name string, data []byte) {
	if f.objects[area] == nil {
		f.objects[area] = make(map[string][]byte)
	}
	f.objects[area][name] = data
}

func (f *fakeFetcher) FetchBytes(_ context.Context, area, objectName string) ([]byte, error) {
	f.visited = append(f.visited, area)
	if data, ok := f.objects[area][objectName]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("对象不存在")
}

func (f *fakeFetcher) Stat(_ context.Context, area, objectName string) error {
	f.stated = append(f.stated, area)
	if _, ok := f.objects[area][objectName]; ok {
		return nil
	}
	return fmt.Errorf("对象不存在")
}

func (f *fakeFetcher) PresignedURL(area, objectName string, _ time.Duration) (string, error) {
	return "https://minio.test/" + area + "/" + objectName, nil
}

// fakeWord 直接返回固定 HTML，或模拟转换失败。
type fakeWord struct {
	html string
	err  error
}

func (f *fakeWord) ExtractHTML(_ io.Reader, _ string) (string, error) {
	return f.html, f.err
}

var testAreas = []string{"documents", "reports", "deck-files"}

func newTestPreviewService(fetcher AreaFetcher, word WordConverter) (PreviewService, *ObjectURLRegistry) {
	registry := NewObjectURLRegistry()
	return NewPreviewService(fetcher, word, registry, testAreas, 100), registry
}

func xlsxBytes(t *testing.T, dataRows int) []byte {
	t.Helper()
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	require.NoError(t, wb.SetSheetRow(sheet, "A1", &[]string{"company", "round", "amount"}))
	for i := 0; i < dataRows; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		row := []string{fmt.Sprintf("company-%d", i), "seed", "100000"}
		require.NoError(t, wb.SetSheetRow(sheet, cell, &row))
	}
	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestResolvePreview_FallbackOrder(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("deck-files", "decks/q3.txt", []byte("series A memo"))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "q3.txt",
		StoragePath: "decks/q3.txt",
	})
	require.NoError(t, err)
	defer preview.Close()

	// 只有第三个存储区有文件，前两个区必须按顺序先被尝试过
	assert.Equal(t, []string{"documents", "reports", "deck-files"}, fetcher.visited)
	assert.Equal(t, model.FileTypeText, preview.FileType)
	assert.Equal(t, "series A memo", preview.Text)
}

func TestResolvePreview_FirstAreaWins(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "memo.txt", []byte("from documents"))
	fetcher.put("reports", "memo.txt", []byte("from reports"))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "memo.txt",
		StoragePath: "memo.txt",
	})
	require.NoError(t, err)
	defer preview.Close()

	assert.Equal(t, []string{"documents"}, fetcher.visited)
	assert.Equal(t, "from documents", preview.Text)
}

func TestResolvePreview_AllAreasFail(t *testing.T) {
	svc, _ := newTestPreviewService(newFakeFetcher(), &fakeWord{})

	_, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "gone.pdf",
		StoragePath: "gone.pdf",
	})
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestResolvePreview_NoFileAttached(t *testing.T) {
	svc, _ := newTestPreviewService(newFakeFetcher(), &fakeWord{})

	_, err := svc.ResolvePreview(context.Background(), model.DocumentRef{Name: "empty-deal"})
	assert.ErrorIs(t, err, ErrNoFileAttached)
}

func TestResolvePreview_UnsupportedFormat(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "mystery.bin", []byte{0x00, 0x01})
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	_, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "mystery.bin",
		StoragePath: "mystery.bin",
	})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	// 不支持的格式在取字节之前就应判定，不浪费存储区请求
	assert.Empty(t, fetcher.visited)
}

func TestResolvePreview_InlineTextBypassesStorage(t *testing.T) {
	fetcher := newFakeFetcher()
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "pasted-email.pdf",
		StoragePath: "somewhere.pdf",
		InlineText:  "Dear investor, attached our Q2 update.",
	})
	require.NoError(t, err)
	defer preview.Close()

	assert.Equal(t, model.FileTypeText, preview.FileType)
	assert.Equal(t, "Dear investor, attached our Q2 update.", preview.Text)
	assert.Empty(t, fetcher.visited)
}

func TestResolvePreview_PDFGetsObjectURL(t *testing.T) {
	fetcher := newFakeFetcher()
	pdf := []byte("%PDF-1.7 fake")
	fetcher.put("documents", "deck.pdf", pdf)
	svc, registry := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "deck.pdf",
		StoragePath: "deck.pdf",
	})
	require.NoError(t, err)

	assert.Equal(t, model.FileTypePDF, preview.FileType)
	assert.True(t, strings.HasPrefix(preview.ObjectURL, ObjectURLPrefix))
	assert.Equal(t, "https://minio.test/documents/deck.pdf", preview.DownloadURL)
	assert.Equal(t, ZoomDefault, preview.Zoom.Level)

	data, contentType, ok := registry.Resolve(preview.ObjectURL)
	require.True(t, ok)
	assert.Equal(t, pdf, data)
	assert.Equal(t, "application/pdf", contentType)

	// 关闭预览后令牌失效，重复关闭无副作用
	preview.Close()
	_, _, ok = registry.Resolve(preview.ObjectURL)
	assert.False(t, ok)
	preview.Close()
	assert.Equal(t, 0, registry.Len())
}

func TestResolvePreview_WordSanitizedHTML(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "terms.docx", []byte("raw-docx-bytes"))
	word := &fakeWord{html: `<p>投资条款</p><script>alert("x")</script>`}
	svc, _ := newTestPreviewService(fetcher, word)

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "terms.docx",
		StoragePath: "terms.docx",
	})
	require.NoError(t, err)
	defer preview.Close()

	assert.Equal(t, model.FileTypeWord, preview.FileType)
	assert.Contains(t, preview.HTML, "<p>投资条款</p>")
	assert.NotContains(t, preview.HTML, "<script>")
}

func TestResolvePreview_WordConversionFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "broken.doc", []byte("not-a-doc"))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{err: errors.New("tika: 422")})

	_, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "broken.doc",
		StoragePath: "broken.doc",
	})
	assert.ErrorIs(t, err, ErrDecodeFailed)
}

func TestResolvePreview_WorkbookTruncatedAtCap(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "pipeline.xlsx", xlsxBytes(t, 250))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "pipeline.xlsx",
		StoragePath: "pipeline.xlsx",
	})
	require.NoError(t, err)
	defer preview.Close()

	require.NotNil(t, preview.Grid)
	assert.Equal(t, []string{"company", "round", "amount"}, preview.Grid.Headers)
	assert.Len(t, preview.Grid.Rows, 100)
	assert.Equal(t, 250, preview.Grid.TotalRows)
	assert.True(t, preview.Grid.Truncated)
	assert.Equal(t, []string{"company-0", "seed", "100000"}, preview.Grid.Rows[0])
}

func TestResolvePreview_WorkbookUnderCapNotTruncated(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "small.xlsx", xlsxBytes(t, 40))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "small.xlsx",
		StoragePath: "small.xlsx",
	})
	require.NoError(t, err)
	defer preview.Close()

	require.NotNil(t, preview.Grid)
	assert.Len(t, preview.Grid.Rows, 40)
	assert.Equal(t, 40, preview.Grid.TotalRows)
	assert.False(t, preview.Grid.Truncated)
}

func TestResolvePreview_CSVGrid(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("reports", "cap-table.csv", []byte("holder,shares\nfounder,7000\nangel,1500\n"))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	preview, err := svc.ResolvePreview(context.Background(), model.DocumentRef{
		Name:        "cap-table.csv",
		StoragePath: "cap-table.csv",
	})
	require.NoError(t, err)
	defer preview.Close()

	assert.Equal(t, model.FileTypeExcel, preview.FileType)
	require.NotNil(t, preview.Grid)
	assert.Equal(t, []string{"holder", "shares"}, preview.Grid.Headers)
	assert.Equal(t, [][]string{{"founder", "7000"}, {"angel", "1500"}}, preview.Grid.Rows)
	assert.False(t, preview.Grid.Truncated)
}

func TestResolvePreview_CanceledContextAborts(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("documents", "deck.pdf", []byte("%PDF"))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ResolvePreview(ctx, model.DocumentRef{
		Name:        "deck.pdf",
		StoragePath: "deck.pdf",
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, fetcher.visited)
}

func TestRawDownloadURL(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.put("reports", "archive.zip", []byte("zip-bytes"))
	svc, _ := newTestPreviewService(fetcher, &fakeWord{})

	url, err := svc.RawDownloadURL(context.Background(), model.DocumentRef{
		Name:        "archive.zip",
		StoragePath: "archive.zip",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://minio.test/reports/archive.zip", url)

	// 定位存储区只做存在性探测，不把对象内容下载回来
	assert.Equal(t, []string{"documents", "reports"}, fetcher.stated)
	assert.Empty(t, fetcher.visited)

	_, err = svc.RawDownloadURL(context.Background(), model.DocumentRef{Name: "none"})
	assert.ErrorIs(t, err, ErrNoFileAttached)
}
