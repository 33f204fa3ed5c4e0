package controllers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"bloodbridge/internal/delivery/http/helpers"
	"bloodbridge/internal/domain"
)

// CompatibilityResponse lists who a blood type can give to and receive from.
type CompatibilityResponse struct {
	BloodType      domain.BloodType   `json:"blood_type"`
	CanDonateTo    []domain.BloodType `json:"can_donate_to"`
	CanReceiveFrom []domain.BloodType `json:"can_receive_from"`
}

// CompatibilitySuccessResponse is the success envelope for GET /blood-types/{bloodType}/compatibility (200).
type CompatibilitySuccessResponse struct {
	Data  CompatibilityResponse `json:"data"`
	Error *helpers.APIError     `json:"error"`
}

type CompatibilityController struct{}

func NewCompatibilityController() *CompatibilityController {
	return &CompatibilityController{}
}

// GetCompatibility godoc
// @Summary Blood type compatibility
// @Description Returns the recipient types a donor type can give to and the donor types a recipient type can receive from. Encode "+" as %2B.
// @Tags blood-types
// @Produce json
// @Param bloodType path string true "Blood type, e.g. O- or AB%2B"
// @Success 200 {object} controllers.CompatibilitySuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Router /blood-types/{bloodType}/compatibility [get]
func (c *CompatibilityController) GetCompatibility(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "bloodType")
	if unescaped, err := url.PathUnescape(raw); err == nil {
		raw = unescaped
	}
	bt, err := domain.ParseBloodType(raw)
	if err != nil {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, CompatibilityResponse{
		BloodType:      bt,
		CanDonateTo:    domain.CompatibleRecipientTypes(bt),
		CanReceiveFrom: domain.CompatibleDonorTypes(bt),
	})
}
