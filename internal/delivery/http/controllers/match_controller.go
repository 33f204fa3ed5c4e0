package controllers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"bloodbridge/internal/adapters/geo"
	"bloodbridge/internal/delivery/http/helpers"
	"bloodbridge/internal/domain"
)

// PreviewMatchesRequest is the request body for POST /matches/preview.
type PreviewMatchesRequest struct {
	BloodType  string   `json:"blood_type"`
	Latitude   *float64 `json:"latitude"`
	Longitude  *float64 `json:"longitude"`
	Urgency    string   `json:"urgency"`
	ExcludeIDs []string `json:"exclude_ids"`
}

// Validate implements Validator.
func (p PreviewMatchesRequest) Validate() []string {
	var errs []string
	if _, err := domain.ParseBloodType(p.BloodType); err != nil {
		errs = append(errs, fmt.Sprintf("blood_type %q is not a recognized blood type", p.BloodType))
	}
	if _, err := domain.ParseUrgencyLevel(p.Urgency); err != nil {
		errs = append(errs, fmt.Sprintf("urgency %q must be one of low, medium, high, critical", p.Urgency))
	}
	if p.Latitude == nil || p.Longitude == nil {
		errs = append(errs, "latitude and longitude are required")
	} else if err := geo.ValidateCoordinates(domain.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude}); err != nil {
		errs = append(errs, err.Error())
	}
	return errs
}

// MatchRequest converts a validated body into engine input.
func (p PreviewMatchesRequest) MatchRequest() domain.MatchRequest {
	bt, _ := domain.ParseBloodType(p.BloodType)
	urgency, _ := domain.ParseUrgencyLevel(p.Urgency)
	return domain.MatchRequest{
		BloodType:  bt,
		Location:   domain.Coordinates{Latitude: *p.Latitude, Longitude: *p.Longitude},
		Urgency:    urgency,
		ExcludeIDs: p.ExcludeIDs,
	}
}

// ExpandSearchRequest is the request body for POST /requests/{requestID}/matches/expand.
type ExpandSearchRequest struct {
	RadiusKm float64 `json:"radius_km"`
}

// Validate implements Validator.
func (e ExpandSearchRequest) Validate() []string {
	if e.RadiusKm <= 0 {
		return []string{"radius_km must be greater than zero"}
	}
	return nil
}

// MatchResultSuccessResponse is the success envelope for endpoints returning a match result (200).
type MatchResultSuccessResponse struct {
	Data  *domain.MatchResult `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

// StoredMatchesResponse is the response body for GET /requests/{requestID}/matches.
type StoredMatchesResponse struct {
	RequestID  string                 `json:"request_id"`
	Matches    []*domain.DonorMatch   `json:"matches"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// StoredMatchesSuccessResponse is the success envelope for GET /requests/{requestID}/matches (200).
type StoredMatchesSuccessResponse struct {
	Data  StoredMatchesResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type MatchController struct {
	Logger   *slog.Logger
	Dispatch domain.DispatchUseCase
}

func NewMatchController(logger *slog.Logger, dispatch domain.DispatchUseCase) *MatchController {
	return &MatchController{
		Logger:   logger,
		Dispatch: dispatch,
	}
}

// PreviewMatches godoc
// @Summary Preview donor matches
// @Description Runs the matching engine for an ad-hoc request. Nothing is stored and no donor is notified.
// @Tags matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body PreviewMatchesRequest true "Blood type, location and urgency"
// @Success 200 {object} controllers.MatchResultSuccessResponse "data contains the ranked matches"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /matches/preview [post]
func (c *MatchController) PreviewMatches(w http.ResponseWriter, r *http.Request) {
	var req PreviewMatchesRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Dispatch.Preview(r.Context(), req.MatchRequest())
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// DispatchMatches godoc
// @Summary Match donors for a blood request
// @Description Finds, stores and notifies ranked donors for a stored blood request. Concurrent runs for the same request are rejected with 409.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Blood request ID (UUID)"
// @Success 200 {object} controllers.MatchResultSuccessResponse "data contains the ranked matches"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /requests/{requestID}/matches [post]
func (c *MatchController) DispatchMatches(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	result, err := c.Dispatch.DispatchMatches(r.Context(), requestID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// ExpandSearch godoc
// @Summary Re-run matching with a wider radius
// @Description Re-runs matching for a stored blood request with the given radius, replacing the stored matches.
// @Tags matches
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Blood request ID (UUID)"
// @Param body body ExpandSearchRequest true "New search radius in km"
// @Success 200 {object} controllers.MatchResultSuccessResponse "data contains the ranked matches"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /requests/{requestID}/matches/expand [post]
func (c *MatchController) ExpandSearch(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	var req ExpandSearchRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	result, err := c.Dispatch.ExpandSearch(r.Context(), requestID, req.RadiusKm)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, result)
}

// GetMatches godoc
// @Summary List stored matches
// @Description Returns the matches stored by the last run for a blood request, ordered by rank.
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Param requestID path string true "Blood request ID (UUID)"
// @Param page query int false "Page number (1-based)" default(1)
// @Param page_size query int false "Page size" default(20)
// @Success 200 {object} controllers.StoredMatchesSuccessResponse "data contains matches and pagination"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /requests/{requestID}/matches [get]
func (c *MatchController) GetMatches(w http.ResponseWriter, r *http.Request) {
	requestID, ok := requestIDParam(w, r)
	if !ok {
		return
	}
	matches, err := c.Dispatch.GetMatches(r.Context(), requestID)
	if err != nil {
		c.writeError(w, r, err)
		return
	}
	page, meta := helpers.Paginate(matches, helpers.ParsePageParams(r))
	helpers.WriteJSONSuccess(w, http.StatusOK, StoredMatchesResponse{
		RequestID:  requestID,
		Matches:    page,
		Pagination: meta,
	})
}

func requestIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	raw := strings.TrimSpace(chi.URLParam(r, "requestID"))
	id, err := uuid.Parse(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "requestID must be a UUID")
		return "", false
	}
	return id.String(), true
}

func (c *MatchController) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := helpers.StatusForError(err); status >= http.StatusInternalServerError {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
	}
	helpers.WriteError(w, err)
}
