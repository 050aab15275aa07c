package importer

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/myowjaYOY/program-tracker-sub000/pkg/common/logger"
)

type HTTPHandler struct {
	service *Service
	maxBody int64
}

func NewHTTPHandler(service *Service, maxBody int64) *HTTPHandler {
	return &HTTPHandler{service: service, maxBody: maxBody}
}

func (h *HTTPHandler) Register(router *mux.Router) {
	router.HandleFunc("/imports", h.handleImport).Methods(http.MethodPost)
	router.HandleFunc("/imports/{id}", h.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/scores/rescore", h.handleRescore).Methods(http.MethodPost)
}

// handleImport accepts the raw CSV export, either as the request body or as
// the "file" part of a multipart form.
func (h *HTTPHandler) handleImport(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	data, fileName, err := readUpload(r)
	if err != nil {
		logger.Log.WithError(err).Warn("invalid import upload")
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	summary, err := h.service.Run(r.Context(), fileName, data)
	if err != nil {
		if errors.Is(err, ErrFileUnreadable) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, ErrBudgetExceeded) {
			http.Error(w, err.Error(), http.StatusRequestTimeout)
			return
		}
		logger.Log.WithError(err).Error("failed to run import")
		http.Error(w, "internal error", http.StatusInternalServerError)
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
		http.Error(w, "invalid job id", http.StatusBadRequest)
		return
	}

	job, err := h.service.Job(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, "import job not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to fetch import job")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (h *HTTPHandler) handleRescore(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.RescoreClinical(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("failed to rescore clinical sessions")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"sessions_rescored": count})
}

func readUpload(r *http.Request) ([]byte, string, error) {
	contentType := r.Header.Get("Content-Type")
	if len(contentType) >= 19 && contentType[:19] == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", err
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", err
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty request body")
	}
	return data, "upload.csv", nil
}
