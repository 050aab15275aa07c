package analysis

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/models"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/importer"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/insights"
)

type HTTPHandler struct {
	service  *Service
	insights *insights.Service
}

func NewHTTPHandler(service *Service, insightSvc *insights.Service) *HTTPHandler {
	return &HTTPHandler{service: service, insights: insightSvc}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/analysis", h.handleTrigger).Methods(http.MethodPost)
	router.HandleFunc("/analysis/{id}", h.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/population/means", h.handlePopulationMeans).Methods(http.MethodGet)
}

func (h *HTTPHandler) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req models.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownTrigger), errors.Is(err, ErrNoMembers):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, importer.ErrJobNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			logger.Log.WithError(err).Error("failed to run analysis")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(summary)
}

func (h *HTTPHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	id, err := uuid.Parse(vars["id"])
	if err != nil {
		http.Error(w, "invalid run id", http.StatusBadRequest)
		return
	}

	run, err := h.service.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrRunNotFound) {
			http.Error(w, "analysis run not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch analysis run")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(run)
}

func (h *HTTPHandler) handlePopulationMeans(w http.ResponseWriter, r *http.Request) {
	means, err := h.insights.CachedPopulationMeans(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to load population means")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(means)
}
