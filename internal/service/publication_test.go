package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"maktaba/internal/model"
	"maktaba/internal/repository"
	repoMocks "maktaba/internal/repository/mocks"
	"maktaba/internal/storage"
	storeMocks "maktaba/internal/storage/mocks"
)

func TestPublicationService_Upload(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		upload     func() PublicationUpload
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository)
		wantErr    error
		wantErrMsg string
	}{
		{
			name: "booklet only",
			upload: func() PublicationUpload {
				return PublicationUpload{
					Title: "Risala March 2025",
					Booklet: UploadFile{
						Reader:      strings.NewReader("pdf bytes"),
						Filename:    "risala.pdf",
						ContentType: "application/pdf",
						Size:        9,
					},
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "publications/") && strings.HasSuffix(key, ".pdf")
				}), mock.Anything, storage.PutObjectOptions{
					Size:        9,
					ContentType: "application/pdf",
					Metadata:    map[string]string{"original-filename": "risala.pdf"},
				}).Return(storage.ObjectInfo{Key: "publications/uuid.pdf"}, nil)

				mRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Publication) bool {
					return p.Title == "Risala March 2025" && p.BookletPath != "" &&
						p.AudioPath == "" && p.ThumbnailPath == ""
				})).Return(&model.Publication{ID: "p1"}, nil)
			},
		},
		{
			name: "booklet with audio and thumbnail",
			upload: func() PublicationUpload {
				return PublicationUpload{
					Title:     "Risala April 2025",
					Booklet:   UploadFile{Reader: strings.NewReader("pdf"), Filename: "r.pdf", Size: 3},
					Audio:     UploadFile{Reader: strings.NewReader("mp3"), Filename: "r.mp3", Size: 3},
					Thumbnail: UploadFile{Reader: strings.NewReader("png"), Filename: "r.png", Size: 3},
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil).Times(3)

				mRepo.On("Create", ctx, mock.MatchedBy(func(p *model.Publication) bool {
					return strings.HasPrefix(p.BookletPath, "publications/") &&
						strings.HasPrefix(p.AudioPath, "publications/audio/") &&
						strings.HasPrefix(p.ThumbnailPath, "publications/thumbnails/")
				})).Return(&model.Publication{ID: "p2"}, nil)
			},
		},
		{
			name: "validation error - nil booklet reader",
			upload: func() PublicationUpload {
				return PublicationUpload{Title: "x"}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {},
			wantErr:    ErrReaderNil,
		},
		{
			name: "validation error - missing title",
			upload: func() PublicationUpload {
				return PublicationUpload{
					Booklet: UploadFile{Reader: strings.NewReader("pdf"), Filename: "r.pdf"},
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name: "repository error with successful rollback",
			upload: func() PublicationUpload {
				return PublicationUpload{
					Title:   "x",
					Booklet: UploadFile{Reader: strings.NewReader("pdf"), Filename: "r.pdf", Size: 3},
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "db save failed: db fail",
		},
		{
			name: "repository error with failed rollback",
			upload: func() PublicationUpload {
				return PublicationUpload{
					Title:   "x",
					Booklet: UploadFile{Reader: strings.NewReader("pdf"), Filename: "r.pdf", Size: 3},
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mRepo.On("Create", ctx, mock.Anything).Return(nil, errors.New("db fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(errors.New("delete fail"))
			},
			wantErrMsg: "rollback delete failed: delete fail",
		},
		{
			name: "audio upload failure rolls back the booklet",
			upload: func() PublicationUpload {
				return PublicationUpload{
					Title:   "x",
					Booklet: UploadFile{Reader: strings.NewReader("pdf"), Filename: "r.pdf", Size: 3},
					Audio:   UploadFile{Reader: strings.NewReader("mp3"), Filename: "r.mp3", Size: 3},
				}
			},
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return !strings.HasPrefix(key, "publications/audio/")
				}), mock.Anything, mock.Anything).
					Return(func(ctx context.Context, key string, r io.Reader, opt storage.PutObjectOptions) storage.ObjectInfo {
						return storage.ObjectInfo{Key: key}
					}, nil)
				mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
					return strings.HasPrefix(key, "publications/audio/")
				}), mock.Anything, mock.Anything).
					Return(storage.ObjectInfo{}, errors.New("storage fail"))
				mStore.On("Delete", ctx, mock.Anything).Return(nil)
			},
			wantErrMsg: "upload audio: storage fail",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockPublicationRepository)
			svc := NewPublicationService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			pub, err := svc.Upload(ctx, tt.upload())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else if tt.wantErrMsg != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrMsg)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, pub)
			}

			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPublicationService_List(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		limit      int
		offset     int
		setupMocks func(mRepo *repoMocks.MockPublicationRepository)
		wantErr    bool
		wantTotal  int
	}{
		{
			name:   "happy path",
			limit:  10,
			offset: 0,
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Publication]{
						Items: []model.Publication{{ID: "p1"}, {ID: "p2"}},
						Total: 2,
					}, nil)
			},
			wantTotal: 2,
		},
		{
			name:   "pagination boundary - zero limit uses default",
			limit:  0,
			offset: -1,
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("List", ctx, repository.PageQuery{Limit: 10, Offset: 0}).
					Return(&repository.PageResult[model.Publication]{Items: []model.Publication{}, Total: 0}, nil)
			},
		},
		{
			name:  "repository error",
			limit: 10,
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("List", ctx, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockPublicationRepository)
			svc := NewPublicationService(nil, mRepo)

			tt.setupMocks(mRepo)

			res, err := svc.List(ctx, tt.limit, tt.offset)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantTotal, res.Total)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPublicationService_Get(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mRepo *repoMocks.MockPublicationRepository)
		wantErr    error
	}{
		{
			name: "happy path",
			id:   "p1",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Publication{ID: "p1"}, nil)
			},
		},
		{
			name: "not found",
			id:   "nope",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("FindByID", ctx, "nope").Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "empty id",
			id:         "",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {},
			wantErr:    ErrIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockPublicationRepository)
			svc := NewPublicationService(nil, mRepo)

			tt.setupMocks(mRepo)

			pub, err := svc.Get(ctx, tt.id)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.id, pub.ID)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPublicationService_Update(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		title      string
		setupMocks func(mRepo *repoMocks.MockPublicationRepository)
		wantErr    error
	}{
		{
			name:  "happy path",
			id:    "p1",
			title: "Risala May 2025",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("UpdateMeta", ctx, "p1", "Risala May 2025", "updated notes").
					Return(&model.Publication{ID: "p1", Title: "Risala May 2025"}, nil)
			},
		},
		{
			name:  "not found",
			id:    "nope",
			title: "x",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("UpdateMeta", ctx, "nope", "x", "updated notes").
					Return(nil, sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name:       "missing title",
			id:         "p1",
			title:      "",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {},
			wantErr:    ErrValidation,
		},
		{
			name:       "empty id",
			id:         "",
			title:      "x",
			setupMocks: func(mRepo *repoMocks.MockPublicationRepository) {},
			wantErr:    ErrIDRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockPublicationRepository)
			svc := NewPublicationService(nil, mRepo)

			tt.setupMocks(mRepo)

			pub, err := svc.Update(ctx, tt.id, tt.title, "updated notes")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.title, pub.Title)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestPublicationService_PresignDownload(t *testing.T) {
	ctx := context.Background()

	mStore := new(storeMocks.MockStorage)
	mRepo := new(repoMocks.MockPublicationRepository)

	mRepo.On("FindByID", ctx, "p1").
		Return(&model.Publication{ID: "p1", BookletPath: "publications/x.pdf"}, nil)
	mStore.On("PresignGet", ctx, "publications/x.pdf", 15*time.Minute).
		Return("https://minio/presigned", nil)

	svc := NewPublicationService(mStore, mRepo)
	url, err := svc.PresignDownload(ctx, "p1", 15*time.Minute)

	assert.NoError(t, err)
	assert.Equal(t, "https://minio/presigned", url)
	mStore.AssertExpectations(t)
	mRepo.AssertExpectations(t)
}

func TestPublicationService_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository)
		wantErr    bool
	}{
		{
			name: "deletes every stored object then the record",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Publication{
					ID:            "p1",
					BookletPath:   "publications/x.pdf",
					AudioPath:     "publications/audio/x.mp3",
					ThumbnailPath: "publications/thumbnails/x.png",
				}, nil)
				mStore.On("Delete", ctx, "publications/x.pdf").Return(nil)
				mStore.On("Delete", ctx, "publications/audio/x.mp3").Return(nil)
				mStore.On("Delete", ctx, "publications/thumbnails/x.png").Return(nil)
				mRepo.On("Delete", ctx, "p1").Return(nil)
			},
		},
		{
			name: "storage failure keeps the record",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockPublicationRepository) {
				mRepo.On("FindByID", ctx, "p1").Return(&model.Publication{
					ID: "p1", BookletPath: "publications/x.pdf",
				}, nil)
				mStore.On("Delete", ctx, "publications/x.pdf").
					Return(errors.New("storage fail"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockPublicationRepository)
			svc := NewPublicationService(mStore, mRepo)

			tt.setupMocks(mStore, mRepo)

			err := svc.Delete(ctx, "p1")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}
