package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/sports-sessions/models"
	"github.com/Dosada05/sports-sessions/repositories"
)

type ReportService interface {
	SessionsInWindow(ctx context.Context, period models.ReportPeriod) (models.SessionsWindowReport, error)
	SportPopularity(ctx context.Context) ([]models.SportPopularity, error)
}

type reportService struct {
	sessionRepo repositories.SessionRepository
	now         func() time.Time
}

func NewReportService(sessionRepo repositories.SessionRepository) ReportService {
	return &reportService{
		sessionRepo: sessionRepo,
		now:         time.Now,
	}
}

// SessionsInWindow считает сессии, созданные в отчётном окне. Окно
// отсчитывается от created_at, а не от запланированной даты сессии — так
// ведёт себя исходная версия отчёта, и это поведение сохранено.
func (s *reportService) SessionsInWindow(ctx context.Context, period models.ReportPeriod) (models.SessionsWindowReport, error) {
	count, err := s.sessionRepo.CountCreatedSince(ctx, windowStart(period, s.now()))
	if err != nil {
		return models.SessionsWindowReport{}, fmt.Errorf("failed to count sessions for period %q: %w", period, err)
	}

	return models.SessionsWindowReport{
		Period:         period,
		SessionsPlayed: count,
	}, nil
}

// SportPopularity возвращает рейтинг активных сессий по видам спорта,
// по убыванию количества. Отменённые сессии не учитываются.
func (s *reportService) SportPopularity(ctx context.Context) ([]models.SportPopularity, error) {
	ranking, err := s.sessionRepo.CountActiveBySport(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to rank sports by popularity: %w", err)
	}
	return ranking, nil
}

// windowStart вычисляет начало отчётного окна. Неизвестный период означает
// "за всё время" и отсчитывается от эпохи.
func windowStart(period models.ReportPeriod, now time.Time) time.Time {
	switch period {
	case models.PeriodDaily:
		return now.AddDate(0, 0, -1)
	case models.PeriodWeekly:
		return now.AddDate(0, 0, -7)
	case models.PeriodMonthly:
		return now.AddDate(0, -1, 0)
	default:
		return time.Unix(0, 0)
	}
}
