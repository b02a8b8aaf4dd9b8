// README: Prediction and health handlers.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"surgecast/internal/modules/surge"
)

// Predictor is the slice of *surge.Service the handlers use.
type Predictor interface {
	Predict(ctx context.Context, req surge.PredictionRequest) (surge.Response, error)
	Fallback(err error) surge.Response
	Health() surge.HealthReport
}

type PredictHandler struct {
	svc    Predictor
	legacy bool
}

// NewPredictHandler builds the handler. legacyStatus answers every failure
// with 200 and the fallback body.
func NewPredictHandler(svc Predictor, legacyStatus bool) *PredictHandler {
	return &PredictHandler{svc: svc, legacy: legacyStatus}
}

// Pointers let "required" tell a missing field from a zero hour or lag.
type predictReq struct {
	Hour      *int     `json:"hour" binding:"required,min=0,max=23"`
	DayOfWeek *int     `json:"day_of_week" binding:"required,min=0,max=6"`
	SurgeLag1 *float64 `json:"surge_lag_1" binding:"required,gte=0"`
	SurgeLag2 *float64 `json:"surge_lag_2" binding:"required,gte=0"`
	SurgeLag3 *float64 `json:"surge_lag_3" binding:"required,gte=0"`
}

func (r predictReq) toRequest() surge.PredictionRequest {
	return surge.PredictionRequest{
		Hour:      *r.Hour,
		DayOfWeek: *r.DayOfWeek,
		SurgeLag1: *r.SurgeLag1,
		SurgeLag2: *r.SurgeLag2,
		SurgeLag3: *r.SurgeLag3,
	}
}

func (h *PredictHandler) Predict(c *gin.Context) {
	var req predictReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %v", surge.ErrInvalidInput, err))
		return
	}
	resp, err := h.svc.Predict(c.Request.Context(), req.toRequest())
	if err != nil {
		h.fail(c, err)
		return
	}
	writeJSON(c, predictStatus(nil, h.legacy), resp)
}

func (h *PredictHandler) fail(c *gin.Context, err error) {
	_ = c.Error(err)
	writeJSON(c, predictStatus(err, h.legacy), h.svc.Fallback(err))
}

func (h *PredictHandler) Health(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.svc.Health())
}
