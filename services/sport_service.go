package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/Dosada05/sports-sessions/models"
	"github.com/Dosada05/sports-sessions/repositories"
	"github.com/Dosada05/sports-sessions/storage"
)

var (
	ErrSportNameRequired   = errors.New("sport name is required")
	ErrSportNameConflict   = errors.New("sport name already exists")
	ErrSportCreationFailed = errors.New("failed to create sport")
	ErrSportUpdateFailed   = errors.New("failed to update sport")
	ErrSportLogoInvalid    = errors.New("sport logo must be a png or jpeg image")

	ErrSportLogoStorageUnavailable = errors.New("sport logo storage is not configured")
)

type SportService interface {
	CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error)
	GetSportByID(ctx context.Context, id int) (*models.Sport, error)
	GetAllSports(ctx context.Context) ([]models.Sport, error)
	UpdateSport(ctx context.Context, id int, input UpdateSportInput) (*models.Sport, error)
	UploadSportLogo(ctx context.Context, id int, file io.Reader, contentType string) (*models.Sport, error)
}

type CreateSportInput struct {
	Name string `json:"name"`
}

type UpdateSportInput struct {
	Name string `json:"name"`
}

type sportService struct {
	sportRepo repositories.SportRepository
	uploader  storage.FileUploader
}

func NewSportService(sportRepo repositories.SportRepository, uploader storage.FileUploader) SportService {
	return &sportService{
		sportRepo: sportRepo,
		uploader:  uploader,
	}
}

func (s *sportService) CreateSport(ctx context.Context, input CreateSportInput) (*models.Sport, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrSportNameRequired
	}

	sport := &models.Sport{
		Name: name,
	}

	err := s.sportRepo.Create(ctx, sport)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNameConflict) {
			return nil, ErrSportNameConflict
		}
		return nil, fmt.Errorf("%w: %w", ErrSportCreationFailed, err)
	}

	return sport, nil
}

func (s *sportService) GetSportByID(ctx context.Context, id int) (*models.Sport, error) {
	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to get sport by id %d: %w", id, err)
	}

	s.resolveLogoURL(sport)
	return sport, nil
}

func (s *sportService) GetAllSports(ctx context.Context) ([]models.Sport, error) {
	sports, err := s.sportRepo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sports: %w", err)
	}
	for i := range sports {
		s.resolveLogoURL(&sports[i])
	}
	return sports, nil
}

func (s *sportService) UpdateSport(ctx context.Context, id int, input UpdateSportInput) (*models.Sport, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrSportNameRequired
	}

	sportToUpdate := &models.Sport{
		ID:   id,
		Name: name,
	}

	err := s.sportRepo.Update(ctx, sportToUpdate)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSportNotFound):
			return nil, ErrSportNotFound
		case errors.Is(err, repositories.ErrSportNameConflict):
			return nil, ErrSportNameConflict
		default:
			return nil, fmt.Errorf("%w (id: %d): %w", ErrSportUpdateFailed, id, err)
		}
	}

	return sportToUpdate, nil
}

func (s *sportService) UploadSportLogo(ctx context.Context, id int, file io.Reader, contentType string) (*models.Sport, error) {
	// Хранилище опционально: без настроенного R2 загрузка недоступна.
	if s.uploader == nil {
		return nil, ErrSportLogoStorageUnavailable
	}

	sport, err := s.sportRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrSportNotFound) {
			return nil, ErrSportNotFound
		}
		return nil, fmt.Errorf("failed to get sport by id %d: %w", id, err)
	}

	var ext string
	switch contentType {
	case "image/png":
		ext = "png"
	case "image/jpeg":
		ext = "jpg"
	default:
		return nil, ErrSportLogoInvalid
	}

	key := fmt.Sprintf("sports/%d/logo.%s", sport.ID, ext)

	uploadResult, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload sport logo (id: %d): %w", id, err)
	}

	// Старый объект под другим расширением больше не нужен.
	if sport.LogoKey != nil && *sport.LogoKey != uploadResult.Key {
		if delErr := s.uploader.Delete(ctx, *sport.LogoKey); delErr != nil {
			// Осиротевший объект не критичен, продолжаем.
			slog.Warn("failed to delete previous sport logo",
				slog.String("key", *sport.LogoKey),
				slog.Any("error", delErr),
			)
		}
	}

	if err := s.sportRepo.UpdateLogoKey(ctx, sport.ID, &uploadResult.Key); err != nil {
		return nil, fmt.Errorf("failed to persist sport logo key (id: %d): %w", id, err)
	}

	sport.LogoKey = &uploadResult.Key
	s.resolveLogoURL(sport)
	return sport, nil
}

func (s *sportService) resolveLogoURL(sport *models.Sport) {
	if sport.LogoKey == nil || s.uploader == nil {
		return
	}
	if url := s.uploader.GetPublicURL(*sport.LogoKey); url != "" {
		sport.LogoURL = &url
	}
}
