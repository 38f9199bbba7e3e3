package service

import (
	"context"
	"sync"
	"testing"

	"angeldesk-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeFileRepo 是内存版的文件元数据存储。
type fakeFileRepo struct {
	mu      sync.Mutex
	files   map[string]*model.StoredFile
	updates int
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]*model.StoredFile)}
}

func (f *fakeFileRepo) Create(file *model.StoredFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *file
	f.files[file.ID] = &cp
	return nil
}

func (f *fakeFileRepo) Update(file *model.StoredFile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *file
	f.files[file.ID] = &cp
	f.updates++
	return nil
}

func (f *fakeFileRepo) Delete(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, id)
	return nil
}

func (f *fakeFileRepo) FindByID(id string) (*model.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, ok := f.files[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *file
	return &cp, nil
}

func (f *fakeFileRepo) FindByMD5(fileMD5 string, userID uint) (*model.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.files {
		if file.FileMD5 == fileMD5 && file.UserID == userID {
			cp := *file
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeFileRepo) FindByDealID(dealID string) ([]model.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StoredFile
	for _, file := range f.files {
		if file.DealID != nil && *file.DealID == dealID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) FindByCompanyID(companyID string) ([]model.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StoredFile
	for _, file := range f.files {
		if file.CompanyID != nil && *file.CompanyID == companyID {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) FindAccessible(userID uint) ([]model.StoredFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.StoredFile
	for _, file := range f.files {
		if file.UserID == userID || file.IsPublic {
			out = append(out, *file)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) MarkProcessed(id, summary string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[id]; ok {
		file.Status = model.FileStatusProcessed
		file.Summary = summary
	}
	return nil
}

func (f *fakeFileRepo) MarkFailed(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file, ok := f.files[id]; ok {
		file.Status = model.FileStatusFailed
	}
	return nil
}

// indexCall 记录一次索引可见性同步的入参。
type indexCall struct {
	fileID   string
	isPublic bool
}

func newVisibilityTestService(t *testing.T) (*documentService, *fakeFileRepo, *[]indexCall) {
	t.Helper()
	fileRepo := newFakeFileRepo()
	svc := NewDocumentService(fileRepo, nil, nil).(*documentService)
	var calls []indexCall
	svc.indexVisibility = func(_ context.Context, fileID string, isPublic bool) error {
		calls = append(calls, indexCall{fileID: fileID, isPublic: isPublic})
		return nil
	}
	return svc, fileRepo, &calls
}

func TestSetVisibility_OwnerTogglesProcessedFile(t *testing.T) {
	svc, fileRepo, calls := newVisibilityTestService(t)
	require.NoError(t, fileRepo.Create(&model.StoredFile{
		ID: "f1", UserID: 7, FileName: "q3-report.pdf", Status: model.FileStatusProcessed,
	}))

	file, err := svc.SetVisibility(context.Background(), "f1", 7, true)
	require.NoError(t, err)
	assert.True(t, file.IsPublic)

	// 数据库和索引的可见性一起翻转
	stored, err := fileRepo.FindByID("f1")
	require.NoError(t, err)
	assert.True(t, stored.IsPublic)
	require.Len(t, *calls, 1)
	assert.Equal(t, indexCall{fileID: "f1", isPublic: true}, (*calls)[0])

	// 公开后其他用户也能在列表里看到
	visible, err := svc.ListFiles(99)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "f1", visible[0].ID)
}

func TestSetVisibility_UnprocessedFileSkipsIndex(t *testing.T) {
	svc, fileRepo, calls := newVisibilityTestService(t)
	require.NoError(t, fileRepo.Create(&model.StoredFile{
		ID: "f2", UserID: 7, Status: model.FileStatusUploaded,
	}))

	_, err := svc.SetVisibility(context.Background(), "f2", 7, true)
	require.NoError(t, err)

	// 还没入索引的文件只改库，入索引时摄取任务会带上当前可见性
	stored, err := fileRepo.FindByID("f2")
	require.NoError(t, err)
	assert.True(t, stored.IsPublic)
	assert.Empty(t, *calls)
}

func TestSetVisibility_NoopWhenUnchanged(t *testing.T) {
	svc, fileRepo, calls := newVisibilityTestService(t)
	require.NoError(t, fileRepo.Create(&model.StoredFile{
		ID: "f3", UserID: 7, Status: model.FileStatusProcessed, IsPublic: true,
	}))

	file, err := svc.SetVisibility(context.Background(), "f3", 7, true)
	require.NoError(t, err)
	assert.True(t, file.IsPublic)
	assert.Zero(t, fileRepo.updates)
	assert.Empty(t, *calls)
}

func TestSetVisibility_OwnershipAndExistence(t *testing.T) {
	svc, fileRepo, _ := newVisibilityTestService(t)
	require.NoError(t, fileRepo.Create(&model.StoredFile{
		ID: "f4", UserID: 7, Status: model.FileStatusProcessed,
	}))

	_, err := svc.SetVisibility(context.Background(), "f4", 8, true)
	assert.ErrorIs(t, err, ErrNotFileOwner)

	_, err = svc.SetVisibility(context.Background(), "missing", 7, true)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
