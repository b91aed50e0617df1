package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/sports-sessions/models"
	"github.com/lib/pq"
)

var (
	ErrSessionNotFound       = errors.New("session not found")
	ErrSessionInvalidSport   = errors.New("invalid sport reference")
	ErrSessionInvalidCreator = errors.New("invalid creator reference")
	ErrSessionValidation     = errors.New("session violates a store constraint")

	// Защищённая вставка участника не прошла: сессия исчезла, отменена
	// или участник уже в составе. Классификацию делает сервис.
	ErrSessionNotJoinable = errors.New("session is not joinable")
)

// ListSessionsFilter задаёт критерии выборки. Nil-поля не фильтруют.
type ListSessionsFilter struct {
	CreatedBy *int
	PlayerID  *int
	Status    *models.SessionStatus
}

type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	GetByID(ctx context.Context, id int) (*models.Session, error)
	List(ctx context.Context, filter ListSessionsFilter) ([]models.Session, error)
	AddPlayer(ctx context.Context, sessionID, userID int) error
	Cancel(ctx context.Context, sessionID int, reason string) error
	ListPlayers(ctx context.Context, sessionID int) ([]models.SessionPlayer, error)
	ListPlayersBySessionIDs(ctx context.Context, sessionIDs []int) (map[int][]models.SessionPlayer, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
	CountActiveBySport(ctx context.Context) ([]models.SportPopularity, error)
}

type postgresSessionRepository struct {
	db *sql.DB
}

func NewPostgresSessionRepository(db *sql.DB) SessionRepository {
	return &postgresSessionRepository{db: db}
}

// Create вставляет сессию и её создателя в состав одной транзакцией:
// инвариант "создатель всегда участник" не должен зависеть от второго запроса.
func (r *postgresSessionRepository) Create(ctx context.Context, s *models.Session) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sessions (sport_id, created_by, additional_players_required, team_names, date, venue, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	err = tx.QueryRowContext(ctx, query,
		s.SportID,
		s.CreatedBy,
		s.AdditionalPlayersRequired,
		pq.Array(s.TeamNames),
		s.Date,
		s.Venue,
		s.Status,
	).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return r.handleSessionError(err)
	}

	if err := r.insertMembership(ctx, tx, s.ID, s.CreatedBy); err != nil {
		return err
	}

	return tx.Commit()
}

// insertMembership пишет участие через SQLExecutor: в Create это транзакция
// создания сессии, при прямом вступлении запись идёт защищённой вставкой в
// AddPlayer.
func (r *postgresSessionRepository) insertMembership(ctx context.Context, q SQLExecutor, sessionID, userID int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO session_players (session_id, user_id) VALUES ($1, $2)`,
		sessionID, userID,
	)
	if err != nil {
		return r.handleSessionError(err)
	}
	return nil
}

func (r *postgresSessionRepository) GetByID(ctx context.Context, id int) (*models.Session, error) {
	query := `
		SELECT id, sport_id, created_by, additional_players_required, team_names,
		       date, venue, status, cancel_reason, created_at
		FROM sessions
		WHERE id = $1`

	var s models.Session
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&s.ID, &s.SportID, &s.CreatedBy, &s.AdditionalPlayersRequired,
		(*pq.StringArray)(&s.TeamNames),
		&s.Date, &s.Venue, &s.Status, &s.CancelReason, &s.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresSessionRepository) List(ctx context.Context, filter ListSessionsFilter) ([]models.Session, error) {
	query := `
		SELECT id, sport_id, created_by, additional_players_required, team_names,
		       date, venue, status, cancel_reason, created_at
		FROM sessions
		WHERE 1=1`

	args := []interface{}{}
	argID := 1

	if filter.CreatedBy != nil {
		query += fmt.Sprintf(" AND created_by = $%d", argID)
		args = append(args, *filter.CreatedBy)
		argID++
	}
	if filter.PlayerID != nil {
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM session_players sp WHERE sp.session_id = sessions.id AND sp.user_id = $%d)", argID)
		args = append(args, *filter.PlayerID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}

	query += " ORDER BY created_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.Session, 0)
	for rows.Next() {
		var s models.Session
		if scanErr := rows.Scan(
			&s.ID, &s.SportID, &s.CreatedBy, &s.AdditionalPlayersRequired,
			(*pq.StringArray)(&s.TeamNames),
			&s.Date, &s.Venue, &s.Status, &s.CancelReason, &s.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, s)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// AddPlayer добавляет участника условной вставкой: запись появляется только
// если сессия всё ещё активна, дубликат гасится ON CONFLICT. Две
// одновременные попытки одного пользователя не дадут двойного членства.
func (r *postgresSessionRepository) AddPlayer(ctx context.Context, sessionID, userID int) error {
	query := `
		INSERT INTO session_players (session_id, user_id)
		SELECT s.id, $2
		FROM sessions s
		WHERE s.id = $1 AND s.status = 'active'
		ON CONFLICT (session_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		return r.handleSessionError(err)
	}

	return checkAffectedRows(result, ErrSessionNotJoinable)
}

// Cancel переводит сессию в cancelled и записывает причину одним UPDATE,
// чтобы статус и причина менялись атомарно. Повторная отмена допустима и
// перезаписывает причину.
func (r *postgresSessionRepository) Cancel(ctx context.Context, sessionID int, reason string) error {
	query := `UPDATE sessions SET status = 'cancelled', cancel_reason = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, reason, sessionID)
	if err != nil {
		return r.handleSessionError(err)
	}

	return checkAffectedRows(result, ErrSessionNotFound)
}

func (r *postgresSessionRepository) ListPlayers(ctx context.Context, sessionID int) ([]models.SessionPlayer, error) {
	query := `
		SELECT sp.user_id, u.first_name, u.last_name, sp.joined_at
		FROM session_players sp
		JOIN users u ON u.id = sp.user_id
		WHERE sp.session_id = $1
		ORDER BY sp.joined_at ASC, sp.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	players := make([]models.SessionPlayer, 0)
	for rows.Next() {
		var p models.SessionPlayer
		if scanErr := rows.Scan(&p.UserID, &p.FirstName, &p.LastName, &p.JoinedAt); scanErr != nil {
			return nil, scanErr
		}
		players = append(players, p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return players, nil
}

// ListPlayersBySessionIDs загружает составы пачкой для списочных выборок,
// чтобы не делать запрос на каждую сессию.
func (r *postgresSessionRepository) ListPlayersBySessionIDs(ctx context.Context, sessionIDs []int) (map[int][]models.SessionPlayer, error) {
	result := make(map[int][]models.SessionPlayer, len(sessionIDs))
	if len(sessionIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT sp.session_id, sp.user_id, u.first_name, u.last_name, sp.joined_at
		FROM session_players sp
		JOIN users u ON u.id = sp.user_id
		WHERE sp.session_id = ANY($1)
		ORDER BY sp.joined_at ASC, sp.user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(sessionIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID int
		var p models.SessionPlayer
		if scanErr := rows.Scan(&sessionID, &p.UserID, &p.FirstName, &p.LastName, &p.JoinedAt); scanErr != nil {
			return nil, scanErr
		}
		result[sessionID] = append(result[sessionID], p)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// CountCreatedSince считает сессии по времени создания (created_at), а не по
// запланированной дате — так делает отчётное окно.
func (r *postgresSessionRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM sessions WHERE created_at >= $1`

	var count int
	if err := r.db.QueryRowContext(ctx, query, since).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountActiveBySport группирует активные сессии по виду спорта; отменённые
// в рейтинг не попадают. Имя спорта разрешается на чтении.
func (r *postgresSessionRepository) CountActiveBySport(ctx context.Context) ([]models.SportPopularity, error) {
	query := `
		SELECT s.sport_id, sp.name, COUNT(*) AS sessions
		FROM sessions s
		JOIN sports sp ON sp.id = s.sport_id
		WHERE s.status = 'active'
		GROUP BY s.sport_id, sp.name
		ORDER BY sessions DESC, sp.name ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranking := make([]models.SportPopularity, 0)
	for rows.Next() {
		var row models.SportPopularity
		if scanErr := rows.Scan(&row.SportID, &row.Sport, &row.Sessions); scanErr != nil {
			return nil, scanErr
		}
		ranking = append(ranking, row)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ranking, nil
}

func (r *postgresSessionRepository) handleSessionError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "sessions_sport_id_fkey":
				return ErrSessionInvalidSport
			case "sessions_created_by_fkey", "session_players_user_id_fkey":
				return ErrSessionInvalidCreator
			}
		case "23502", "23514": // not_null_violation, check_violation
			return fmt.Errorf("%w: %s", ErrSessionValidation, pqErr.Message)
		}
	}
	return err
}
