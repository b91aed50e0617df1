package handlers

import (
	"net/http"

	"github.com/Dosada05/sports-sessions/models"
	"github.com/Dosada05/sports-sessions/services"
)

type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: rs,
	}
}

// SessionsInWindow отдаёт количество сессий, созданных за период
// (?period=daily|weekly|monthly; всё остальное трактуется как "за всё время").
func (h *ReportHandler) SessionsInWindow(w http.ResponseWriter, r *http.Request) {
	period := models.ReportPeriod(r.URL.Query().Get("period"))

	report, err := h.reportService.SessionsInWindow(r.Context(), period)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, report, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ReportHandler) SportPopularity(w http.ResponseWriter, r *http.Request) {
	ranking, err := h.reportService.SportPopularity(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{"popularity": ranking}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
