package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/julienschmidt/httprouter"

	"mesa/internal/activity/repository"
	apperrors "mesa/pkg/errors"
	httputil "mesa/pkg/http"
	"mesa/pkg/logger"
	"mesa/pkg/model"
)

type ActivityHandler struct {
	repo repository.ActivityRepository
	log  *logger.Logger
}

func NewActivityHandler(repo repository.ActivityRepository, log *logger.Logger) *ActivityHandler {
	return &ActivityHandler{
		repo: repo,
		log:  log,
	}
}

func (h *ActivityHandler) GetByLocation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	locationID := strings.TrimSpace(query.Get("location_id"))

	if locationID == "" {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "'location_id' query parameter is required",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "GetByLocation", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	limit := 50
	if limitStr := query.Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil || limit <= 0 {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", limitStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "GetByLocation", "operation", "WriteError", "error", writeErr)
			}
			return
		}
	}

	offset := 0
	if offsetStr := query.Get("offset"); offsetStr != "" {
		var err error
		offset, err = strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid offset parameter: %s", offsetStr))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "GetByLocation", "operation", "WriteError", "error", writeErr)
			}
			return
		}
	}

	var count int64
	var entries []*model.ActivityEntry
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = h.repo.CountByLocation(r.Context(), locationID)
	}()
	go func() {
		defer wg.Done()
		entries, errFind = h.repo.FindByLocation(r.Context(), locationID, limit, offset)
	}()
	wg.Wait()

	if errCount != nil || errFind != nil {
		err := errCount
		if err == nil {
			err = errFind
		}
		h.log.Error("Failed to read activity log", "location_id", locationID, "error", err)
		if writeErr := httputil.WriteError(w, apperrors.Internal("Failed to retrieve activity", err)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByLocation", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WritePaginated(w, entries, count, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetByLocation", "operation", "WritePaginated", "error", err)
	}
}

func (h *ActivityHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/activity", h.GetByLocation)
}
