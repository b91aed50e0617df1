package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/Dosada05/sports-sessions/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUploader struct {
	uploaded map[string]string // key -> contentType
	deleted  []string
}

func newMockUploader() *mockUploader {
	return &mockUploader{uploaded: make(map[string]string)}
}

func (m *mockUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	m.uploaded[key] = contentType
	return &storage.UploadResult{Key: key, Location: "https://cdn.example.com/" + key}, nil
}

func (m *mockUploader) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *mockUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestCreateSport(t *testing.T) {
	svc := NewSportService(newMockSportRepository(), nil)
	ctx := context.Background()

	sport, err := svc.CreateSport(ctx, CreateSportInput{Name: "  Tennis  "})
	require.NoError(t, err)
	assert.Equal(t, "Tennis", sport.Name, "name is trimmed before persisting")

	_, err = svc.CreateSport(ctx, CreateSportInput{Name: "Tennis"})
	assert.ErrorIs(t, err, ErrSportNameConflict)

	_, err = svc.CreateSport(ctx, CreateSportInput{Name: "   "})
	assert.ErrorIs(t, err, ErrSportNameRequired)
}

func TestUpdateSport(t *testing.T) {
	repo := newMockSportRepository("Football", "Badminton")
	svc := NewSportService(repo, nil)
	ctx := context.Background()

	sport, err := svc.UpdateSport(ctx, 1, UpdateSportInput{Name: "Futsal"})
	require.NoError(t, err)
	assert.Equal(t, "Futsal", sport.Name)

	_, err = svc.UpdateSport(ctx, 1, UpdateSportInput{Name: "Badminton"})
	assert.ErrorIs(t, err, ErrSportNameConflict)

	_, err = svc.UpdateSport(ctx, 99, UpdateSportInput{Name: "Cricket"})
	assert.ErrorIs(t, err, ErrSportNotFound)
}

func TestUploadSportLogo(t *testing.T) {
	repo := newMockSportRepository("Football")
	uploader := newMockUploader()
	svc := NewSportService(repo, uploader)
	ctx := context.Background()

	sport, err := svc.UploadSportLogo(ctx, 1, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)

	require.NotNil(t, sport.LogoKey)
	assert.Equal(t, "sports/1/logo.png", *sport.LogoKey)
	require.NotNil(t, sport.LogoURL)
	assert.Equal(t, "https://cdn.example.com/sports/1/logo.png", *sport.LogoURL)
	assert.Equal(t, "image/png", uploader.uploaded["sports/1/logo.png"])

	_, err = svc.UploadSportLogo(ctx, 1, strings.NewReader("gif-bytes"), "image/gif")
	assert.ErrorIs(t, err, ErrSportLogoInvalid)

	_, err = svc.UploadSportLogo(ctx, 99, strings.NewReader("png-bytes"), "image/png")
	assert.ErrorIs(t, err, ErrSportNotFound)
}

func TestUploadSportLogo_StorageNotConfigured(t *testing.T) {
	// Без настроенного хранилища сервис собирается с nil-загрузчиком;
	// загрузка логотипа должна отказывать ошибкой, а не падать.
	svc := NewSportService(newMockSportRepository("Football"), nil)

	_, err := svc.UploadSportLogo(context.Background(), 1, strings.NewReader("png-bytes"), "image/png")
	assert.ErrorIs(t, err, ErrSportLogoStorageUnavailable)
}

func TestGetAllSports_ResolvesLogoURLs(t *testing.T) {
	repo := newMockSportRepository("Football", "Badminton")
	key := "sports/1/logo.png"
	repo.sports[1].LogoKey = &key

	svc := NewSportService(repo, newMockUploader())

	sports, err := svc.GetAllSports(context.Background())
	require.NoError(t, err)
	require.Len(t, sports, 2)

	require.NotNil(t, sports[0].LogoURL)
	assert.Equal(t, "https://cdn.example.com/sports/1/logo.png", *sports[0].LogoURL)
	assert.Nil(t, sports[1].LogoURL)
}
