package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/sports-sessions/live"
	"github.com/Dosada05/sports-sessions/models"
	"github.com/Dosada05/sports-sessions/repositories"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSessionSportRequired = errors.New("session sport is required")
	ErrSessionDateRequired  = errors.New("session date is required")
	ErrSessionVenueRequired = errors.New("session venue is required")
	ErrSessionInvalidSport  = errors.New("referenced sport does not exist")
	ErrSessionInvalidCount  = errors.New("additional players required must not be negative")

	ErrSessionCancelled     = errors.New("session is cancelled")
	ErrSessionInPast        = errors.New("cannot join a session in the past")
	ErrSessionAlreadyJoined = errors.New("user has already joined this session")
)

// SessionListFilter — режим выборки списка сессий.
type SessionListFilter string

const (
	// SessionFilterAll — все активные сессии, независимо от участия.
	SessionFilterAll SessionListFilter = ""
	// SessionFilterMine — созданные пользователем, в любом статусе.
	SessionFilterMine SessionListFilter = "mine"
	// SessionFilterJoined — с участием пользователя, в любом статусе.
	SessionFilterJoined SessionListFilter = "joined"
)

type CreateSessionInput struct {
	SportID                   int       `json:"sport_id"`
	TeamNames                 []string  `json:"team_names"`
	AdditionalPlayersRequired int       `json:"additional_players_required"`
	Date                      time.Time `json:"date"`
	Venue                     string    `json:"venue"`
}

type SessionService interface {
	CreateSession(ctx context.Context, creatorID int, input CreateSessionInput) (*models.Session, error)
	ListSessions(ctx context.Context, userID int, filter SessionListFilter) ([]models.Session, error)
	JoinSession(ctx context.Context, userID, sessionID int) (*models.Session, error)
	CancelSession(ctx context.Context, userID, sessionID int, reason string) (*models.Session, error)
}

type sessionService struct {
	sessionRepo repositories.SessionRepository
	sportRepo   repositories.SportRepository
	hub         *live.Hub
	now         func() time.Time
}

func NewSessionService(
	sessionRepo repositories.SessionRepository,
	sportRepo repositories.SportRepository,
	hub *live.Hub,
) SessionService {
	return &sessionService{
		sessionRepo: sessionRepo,
		sportRepo:   sportRepo,
		hub:         hub,
		now:         time.Now,
	}
}

// CreateSession создаёт активную сессию; создатель становится первым
// участником в той же транзакции. Дата не проверяется на будущее,
// team_names может быть пустым — так задумано.
func (s *sessionService) CreateSession(ctx context.Context, creatorID int, input CreateSessionInput) (*models.Session, error) {
	if input.SportID <= 0 {
		return nil, ErrSessionSportRequired
	}
	if input.Date.IsZero() {
		return nil, ErrSessionDateRequired
	}
	if strings.TrimSpace(input.Venue) == "" {
		return nil, ErrSessionVenueRequired
	}
	if input.AdditionalPlayersRequired < 0 {
		return nil, ErrSessionInvalidCount
	}

	teamNames := input.TeamNames
	if teamNames == nil {
		teamNames = []string{}
	}

	session := &models.Session{
		SportID:                   input.SportID,
		CreatedBy:                 creatorID,
		AdditionalPlayersRequired: input.AdditionalPlayersRequired,
		TeamNames:                 teamNames,
		Date:                      input.Date,
		Venue:                     strings.TrimSpace(input.Venue),
		Status:                    models.SessionStatusActive,
	}

	err := s.sessionRepo.Create(ctx, session)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrSessionInvalidSport):
			return nil, ErrSessionInvalidSport
		case errors.Is(err, repositories.ErrSessionValidation):
			return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
		default:
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	if err := s.resolveSession(ctx, session); err != nil {
		return nil, err
	}

	s.broadcast(live.EventSessionCreated, session)

	return session, nil
}

// ListSessions возвращает сессии по режиму фильтра. Спорт и состав
// разрешаются в отображаемую форму на чтении.
func (s *sessionService) ListSessions(ctx context.Context, userID int, filter SessionListFilter) ([]models.Session, error) {
	var repoFilter repositories.ListSessionsFilter
	switch filter {
	case SessionFilterMine:
		repoFilter.CreatedBy = &userID
	case SessionFilterJoined:
		repoFilter.PlayerID = &userID
	default:
		active := models.SessionStatusActive
		repoFilter.Status = &active
	}

	sessions, err := s.sessionRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		return sessions, nil
	}

	sessionIDs := make([]int, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}

	// Состав и каталог спорта грузим параллельно.
	var playersBySession map[int][]models.SessionPlayer
	var sports []models.Sport

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gErr error
		playersBySession, gErr = s.sessionRepo.ListPlayersBySessionIDs(gCtx, sessionIDs)
		return gErr
	})
	g.Go(func() error {
		var gErr error
		sports, gErr = s.sportRepo.GetAll(gCtx)
		return gErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to resolve session references: %w", err)
	}

	sportByID := make(map[int]models.Sport, len(sports))
	for _, sport := range sports {
		sportByID[sport.ID] = sport
	}

	for i := range sessions {
		if sport, ok := sportByID[sessions[i].SportID]; ok {
			resolved := sport
			sessions[i].Sport = &resolved
		}
		players := playersBySession[sessions[i].ID]
		if players == nil {
			players = []models.SessionPlayer{}
		}
		sessions[i].Players = players
	}

	return sessions, nil
}

// JoinSession добавляет пользователя в состав. Предусловия проверяются по
// порядку, побеждает первое нарушенное: существует -> не отменена -> не в
// прошлом -> ещё не участник.
func (s *sessionService) JoinSession(ctx context.Context, userID, sessionID int) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %d: %w", sessionID, err)
	}

	if session.Status == models.SessionStatusCancelled {
		return nil, ErrSessionCancelled
	}
	if session.Date.Before(s.now()) {
		return nil, ErrSessionInPast
	}

	players, err := s.sessionRepo.ListPlayers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d players: %w", sessionID, err)
	}
	for _, p := range players {
		if p.UserID == userID {
			return nil, ErrSessionAlreadyJoined
		}
	}

	// Вставка условная: между проверками и записью сессия могла быть
	// отменена, а пользователь — успеть вступить с другой вкладки.
	// additional_players_required остаётся подсказкой, верхней границы
	// состава нет.
	err = s.sessionRepo.AddPlayer(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotJoinable) {
			return nil, s.classifyJoinConflict(ctx, sessionID)
		}
		return nil, fmt.Errorf("failed to join session %d: %w", sessionID, err)
	}

	if err := s.resolveSession(ctx, session); err != nil {
		return nil, err
	}

	s.broadcast(live.EventSessionUpdated, session)

	return session, nil
}

// CancelSession отменяет сессию. Разрешено только создателю: админ, не
// создававший сессию, получает отказ. Повторная отмена допустима и
// перезаписывает причину; пустая причина принимается.
func (s *sessionService) CancelSession(ctx context.Context, userID, sessionID int, reason string) (*models.Session, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session %d: %w", sessionID, err)
	}

	if session.CreatedBy != userID {
		return nil, ErrForbiddenOperation
	}

	if err := s.sessionRepo.Cancel(ctx, sessionID, reason); err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to cancel session %d: %w", sessionID, err)
	}

	session.Status = models.SessionStatusCancelled
	session.CancelReason = &reason

	if err := s.resolveSession(ctx, session); err != nil {
		return nil, err
	}

	s.broadcast(live.EventSessionCancelled, session)

	return session, nil
}

// classifyJoinConflict перечитывает сессию, чтобы понять, почему защищённая
// вставка не прошла.
func (s *sessionService) classifyJoinConflict(ctx context.Context, sessionID int) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrSessionNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to reload session %d: %w", sessionID, err)
	}
	if session.Status == models.SessionStatusCancelled {
		return ErrSessionCancelled
	}
	return ErrSessionAlreadyJoined
}

// resolveSession подгружает спорт и состав в отображаемой форме.
func (s *sessionService) resolveSession(ctx context.Context, session *models.Session) error {
	sport, err := s.sportRepo.GetByID(ctx, session.SportID)
	if err != nil && !errors.Is(err, repositories.ErrSportNotFound) {
		return fmt.Errorf("failed to resolve sport %d: %w", session.SportID, err)
	}
	session.Sport = sport

	players, err := s.sessionRepo.ListPlayers(ctx, session.ID)
	if err != nil {
		return fmt.Errorf("failed to resolve session %d players: %w", session.ID, err)
	}
	session.Players = players

	return nil
}

func (s *sessionService) broadcast(eventType string, session *models.Session) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(live.FeedRoom, live.Message{
		Type:    eventType,
		Payload: session,
	})
}
