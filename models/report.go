package models

// ReportPeriod — селектор окна для отчёта по сессиям.
type ReportPeriod string

const (
	PeriodDaily   ReportPeriod = "daily"
	PeriodWeekly  ReportPeriod = "weekly"
	PeriodMonthly ReportPeriod = "monthly"
	PeriodAll     ReportPeriod = "all"
)

type SessionsWindowReport struct {
	Period         ReportPeriod `json:"period"`
	SessionsPlayed int          `json:"sessions_played"`
}

// SportPopularity — одна строка рейтинга: спорт и число активных сессий.
type SportPopularity struct {
	SportID  int    `json:"sport_id"`
	Sport    string `json:"sport"`
	Sessions int    `json:"sessions"`
}
