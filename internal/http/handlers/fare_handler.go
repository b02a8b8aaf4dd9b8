// README: Fare comparison handler (route lookup + provider quotes).
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"surgecast/internal/maps"
	"surgecast/internal/modules/pricing"
)

type RouteLookup interface {
	Distance(ctx context.Context, origin, destination string) (maps.Route, error)
}

type FareEstimator interface {
	Estimate(ctx context.Context, distanceKm, durationMin float64) (pricing.FareEstimate, error)
}

type FareHandler struct {
	routes  RouteLookup
	pricing FareEstimator
}

// NewFareHandler accepts a nil routes lookup; requests then get 503.
func NewFareHandler(routes RouteLookup, p FareEstimator) *FareHandler {
	return &FareHandler{routes: routes, pricing: p}
}

type fareReq struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func (h *FareHandler) Estimate(c *gin.Context) {
	var req fareReq
	if err := c.ShouldBindJSON(&req); err != nil {
		zerolog.Ctx(c.Request.Context()).Warn().Err(err).Msg("bad fare request body")
		writeJSON(c, http.StatusBadRequest, errorResponse{Error: "Source and destination are required", Details: err.Error()})
		return
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Destination) == "" {
		writeError(c, http.StatusBadRequest, "Source and destination are required")
		return
	}
	if h.routes == nil {
		writeError(c, http.StatusServiceUnavailable, "route lookup is not configured")
		return
	}

	ctx := c.Request.Context()
	route, err := h.routes.Distance(ctx, req.Source, req.Destination)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("route lookup failed")
		status := http.StatusBadGateway
		if errors.Is(err, maps.ErrBadRequest) {
			status = http.StatusBadRequest
		}
		writeJSON(c, status, errorResponse{Error: "Something went wrong", Details: err.Error()})
		return
	}

	est, err := h.pricing.Estimate(ctx, route.DistanceKm, route.DurationMin)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("fare estimate failed")
		writeJSON(c, http.StatusInternalServerError, errorResponse{Error: "Something went wrong", Details: err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, est)
}
