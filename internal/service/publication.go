package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"maktaba/internal/model"
	"maktaba/internal/repository"
	"maktaba/internal/storage"
)

var ErrReaderNil = errors.New("reader is nil")

// PublicationUpload carries the Risala booklet plus its optional
// companion files. Booklet is required; Audio and Thumbnail may have a
// nil Reader.
type PublicationUpload struct {
	Title       string
	Description string
	Booklet     UploadFile
	Audio       UploadFile
	Thumbnail   UploadFile
}

// UploadFile is one incoming file stream.
type UploadFile struct {
	Reader      io.Reader
	Filename    string
	ContentType string
	Size        int64
}

// PublicationListResult is the service-level DTO for paginated publications.
type PublicationListResult struct {
	Items []model.Publication `json:"data"`
	Total int                 `json:"total"`
}

// PublicationService defines the use cases for the Risala catalog.
type PublicationService interface {
	// Upload stores the files in object storage, saves metadata to DB,
	// and rolls back storage if the DB save fails.
	Upload(ctx context.Context, up PublicationUpload) (*model.Publication, error)

	// List returns publications using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*PublicationListResult, error)

	// Get returns a single publication by its ID.
	Get(ctx context.Context, id string) (*model.Publication, error)

	// Update rewrites the title and description. Files are immutable;
	// replacing them means deleting and re-uploading.
	Update(ctx context.Context, id, title, description string) (*model.Publication, error)

	// PresignDownload returns a time-limited URL for the booklet.
	PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error)

	// Delete removes a publication's objects and its record.
	Delete(ctx context.Context, id string) error
}

type publicationService struct {
	store storage.Storage
	repo  repository.PublicationRepository
}

// NewPublicationService constructs a new PublicationService.
func NewPublicationService(store storage.Storage, repo repository.PublicationRepository) PublicationService {
	return &publicationService{store: store, repo: repo}
}

func (s *publicationService) Upload(ctx context.Context, up PublicationUpload) (*model.Publication, error) {
	if up.Booklet.Reader == nil {
		return nil, ErrReaderNil
	}
	if up.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	id := uuid.New().String()
	genName := id + filepath.Ext(up.Booklet.Filename)

	var uploaded []string
	rollback := func(ctx context.Context) error {
		for _, key := range uploaded {
			if err := s.store.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	}

	bookletKey, err := s.putFile(ctx, "publications", up.Booklet)
	if err != nil {
		return nil, fmt.Errorf("upload booklet: %w", err)
	}
	uploaded = append(uploaded, bookletKey)

	audioKey := ""
	if up.Audio.Reader != nil {
		audioKey, err = s.putFile(ctx, "publications/audio", up.Audio)
		if err != nil {
			_ = rollback(ctx)
			return nil, fmt.Errorf("upload audio: %w", err)
		}
		uploaded = append(uploaded, audioKey)
	}
	thumbKey := ""
	if up.Thumbnail.Reader != nil {
		thumbKey, err = s.putFile(ctx, "publications/thumbnails", up.Thumbnail)
		if err != nil {
			_ = rollback(ctx)
			return nil, fmt.Errorf("upload thumbnail: %w", err)
		}
		uploaded = append(uploaded, thumbKey)
	}

	pub := &model.Publication{
		ID:            id,
		Title:         up.Title,
		Description:   up.Description,
		Filename:      genName,
		BookletPath:   bookletKey,
		AudioPath:     audioKey,
		ThumbnailPath: thumbKey,
		Size:          up.Booklet.Size,
		ContentType:   up.Booklet.ContentType,
		CreatedAt:     time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, pub)
	if err != nil {
		if delErr := rollback(ctx); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// putFile streams one file into object storage under a UUID-based key
// inside prefix and returns the key.
func (s *publicationService) putFile(ctx context.Context, prefix string, f UploadFile) (string, error) {
	genName := uuid.New().String() + filepath.Ext(f.Filename)
	key := filepath.ToSlash(filepath.Join(prefix, genName))

	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	_, err := s.store.Put(ctx, key, f.Reader, storage.PutObjectOptions{
		Size:        f.Size,
		ContentType: ct,
		Metadata: map[string]string{
			"original-filename": f.Filename,
		},
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// List returns paginated publications without exposing repository types.
func (s *publicationService) List(ctx context.Context, limit, offset int) (*PublicationListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &PublicationListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a publication by ID.
func (s *publicationService) Get(ctx context.Context, id string) (*model.Publication, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	pub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNoRows(err, "publication")
	}
	return pub, nil
}

// Update rewrites the record's metadata, leaving the stored objects alone.
func (s *publicationService) Update(ctx context.Context, id, title, description string) (*model.Publication, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	pub, err := s.repo.UpdateMeta(ctx, id, title, description)
	if err != nil {
		return nil, mapNoRows(err, "publication")
	}
	return pub, nil
}

// PresignDownload returns a temporary URL for the booklet object.
func (s *publicationService) PresignDownload(ctx context.Context, id string, expiry time.Duration) (string, error) {
	pub, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return s.store.PresignGet(ctx, pub.BookletPath, expiry)
}

// Delete removes the publication's objects from storage, then deletes its record.
func (s *publicationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrIDRequired
	}
	pub, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return mapNoRows(err, "publication")
	}
	// Delete from storage first; if this fails, keep the DB row so the
	// reference is not lost.
	keys := []string{pub.BookletPath}
	if pub.AudioPath != "" {
		keys = append(keys, pub.AudioPath)
	}
	if pub.ThumbnailPath != "" {
		keys = append(keys, pub.ThumbnailPath)
	}
	for _, key := range keys {
		if err := s.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete storage: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}
