package models

import "time"

// SessionStatus представляет статусы сессии, соответствующие ENUM в БД.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCancelled SessionStatus = "cancelled"
)

// Session представляет запланированную игровую сессию.
// Инварианты: создатель всегда состоит в Players; status = cancelled
// тогда и только тогда, когда задан CancelReason; отмена необратима.
type Session struct {
	ID                        int           `json:"id" db:"id"`
	SportID                   int           `json:"sport_id" db:"sport_id"`
	CreatedBy                 int           `json:"created_by" db:"created_by"`
	AdditionalPlayersRequired int           `json:"additional_players_required" db:"additional_players_required"`
	TeamNames                 []string      `json:"team_names" db:"team_names"`
	Date                      time.Time     `json:"date" db:"date"`
	Venue                     string        `json:"venue" db:"venue"`
	Status                    SessionStatus `json:"status" db:"status"`
	CancelReason              *string       `json:"cancel_reason,omitempty" db:"cancel_reason"`
	CreatedAt                 time.Time     `json:"created_at" db:"created_at"`

	// Связанные сущности, разрешаемые на чтении (не мапятся напрямую)
	Sport   *Sport          `json:"sport,omitempty" db:"-"`
	Players []SessionPlayer `json:"players,omitempty" db:"-"`
}

// SessionPlayer — участник сессии в отображаемой форме.
type SessionPlayer struct {
	UserID    int       `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	JoinedAt  time.Time `json:"joined_at"`
}
