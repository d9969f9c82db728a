package app

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"adminpanel/internal/model"
	"adminpanel/internal/pkg/logger"
	"adminpanel/internal/repository"
	"adminpanel/internal/storage"
	"adminpanel/internal/validation"
)

const defaultMaxPictureBytes int64 = 5 << 20

var allowedPictureExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	List(ctx context.Context, offset, limit int) ([]model.Post, int64, error)
	GetByID(ctx context.Context, id uint) (*model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id uint) error
}

// AssetCleaner removes stored pictures that are no longer referenced.
type AssetCleaner interface {
	Enqueue(ctx context.Context, ref string) error
}

type PostInput struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

type PostPatch struct {
	Title   *string
	Content *string
}

// Upload is a picture file attached to a create or update request.
type Upload struct {
	Filename    string
	Size        int64
	ContentType string
	Body        io.Reader
}

type PostView struct {
	ID        uint      `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Picture   string    `json:"picture"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type PostService struct {
	repo            PostStore
	store           storage.Store
	cleaner         AssetCleaner
	validator       *validation.Validator
	perPage         int
	maxPictureBytes int64
}

// NewPostService builds the post service. cleaner may be nil, in which case
// stale pictures are deleted from the store inline.
func NewPostService(repo PostStore, store storage.Store, cleaner AssetCleaner, validator *validation.Validator, perPage int, maxPictureBytes int64) *PostService {
	if perPage <= 0 {
		perPage = 10
	}
	if maxPictureBytes <= 0 {
		maxPictureBytes = defaultMaxPictureBytes
	}
	return &PostService{
		repo:            repo,
		store:           store,
		cleaner:         cleaner,
		validator:       validator,
		perPage:         perPage,
		maxPictureBytes: maxPictureBytes,
	}
}

func (s *PostService) List(ctx context.Context, page int) (*Page[PostView], error) {
	page, offset := pageOffset(page, s.perPage)
	posts, total, err := s.repo.List(ctx, offset, s.perPage)
	if err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for i := range posts {
		views = append(views, toPostView(&posts[i]))
	}
	return newPage(views, page, s.perPage, total), nil
}

func (s *PostService) Get(ctx context.Context, id uint) (*PostView, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	view := toPostView(post)
	return &view, nil
}

func (s *PostService) Create(ctx context.Context, input PostInput, upload *Upload) (*PostView, error) {
	input = normalizePostInput(input)

	errs := s.validator.Struct(input)
	s.checkUpload(upload, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:   input.Title,
		Content: input.Content,
	}
	if upload != nil {
		ref, err := s.save(ctx, upload)
		if err != nil {
			return nil, err
		}
		post.Picture = ref
	}

	if err := s.repo.Create(ctx, post); err != nil {
		if post.Picture != "" {
			s.discard(ctx, post.Picture)
		}
		return nil, err
	}

	view := toPostView(post)
	return &view, nil
}

func (s *PostService) Update(ctx context.Context, id uint, patch PostPatch, upload *Upload) (*PostView, error) {
	post, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	input := PostInput{Title: post.Title, Content: post.Content}
	if patch.Title != nil {
		input.Title = *patch.Title
	}
	if patch.Content != nil {
		input.Content = *patch.Content
	}
	input = normalizePostInput(input)

	errs := s.validator.Struct(input)
	s.checkUpload(upload, errs)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	previous := post.Picture
	post.Title = input.Title
	post.Content = input.Content
	if upload != nil {
		ref, err := s.save(ctx, upload)
		if err != nil {
			return nil, err
		}
		post.Picture = ref
	}

	if err := s.repo.Update(ctx, post); err != nil {
		if post.Picture != previous {
			s.discard(ctx, post.Picture)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}

	if previous != "" && post.Picture != previous {
		s.cleanup(ctx, previous)
	}
	return s.Get(ctx, post.ID)
}

func (s *PostService) Delete(ctx context.Context, id uint) error {
	post, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, post.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return err
	}
	if post.Picture != "" {
		s.cleanup(ctx, post.Picture)
	}
	return nil
}

func (s *PostService) find(ctx context.Context, id uint) (*model.Post, error) {
	if id == 0 {
		return nil, ErrPostNotFound
	}
	post, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return post, nil
}

func (s *PostService) checkUpload(upload *Upload, errs validation.Errors) {
	if upload == nil {
		return
	}
	ext := strings.ToLower(filepath.Ext(upload.Filename))
	if !allowedPictureExts[ext] {
		errs.Add("picture", s.validator.Message("image", "picture"))
		return
	}
	if upload.Size > s.maxPictureBytes {
		kilobytes := strconv.FormatInt(s.maxPictureBytes/1024, 10)
		errs.Add("picture", s.validator.Message("maxsize", "picture", kilobytes))
	}
}

func (s *PostService) save(ctx context.Context, upload *Upload) (string, error) {
	name := storage.ObjectName("posts", upload.Filename)
	return s.store.Save(ctx, name, upload.Body, upload.Size, upload.ContentType)
}

// cleanup hands a stale picture to the asset cleaner. Failures are logged only.
func (s *PostService) cleanup(ctx context.Context, ref string) {
	if s.cleaner == nil {
		s.discard(ctx, ref)
		return
	}
	if err := s.cleaner.Enqueue(ctx, ref); err != nil {
		logger.Warn("enqueue picture cleanup failed, deleting inline",
			zap.String("ref", ref), zap.Error(err))
		s.discard(ctx, ref)
	}
}

func (s *PostService) discard(ctx context.Context, ref string) {
	if err := s.store.Delete(ctx, ref); err != nil {
		logger.Warn("delete picture failed", zap.String("ref", ref), zap.Error(err))
	}
}

func normalizePostInput(input PostInput) PostInput {
	input.Title = strings.TrimSpace(input.Title)
	input.Content = strings.TrimSpace(input.Content)
	return input
}

func toPostView(post *model.Post) PostView {
	return PostView{
		ID:        post.ID,
		Title:     post.Title,
		Content:   post.Content,
		Picture:   post.Picture,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
}
