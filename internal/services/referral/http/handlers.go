// Package http provides http transport for referral operations
package http

import (
	stdhttp "net/http"

	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/services/referral/domain"
)

// Register mounts referral endpoints, expected under /referrals
func Register(r httpkit.Router, s domain.ResolutionPort) {
	h := &handlers{res: s}

	// external confirmation that a granted referral was physically deleted
	r.Post("/{id}/deleted", httpkit.Call(h.markDeleted))
}

// RegisterChecks mounts retention check endpoints, expected under /checks
func RegisterChecks(r httpkit.Router, s domain.AggregatorPort) {
	h := &handlers{agg: s}
	r.Post("/{id}/redispatch", httpkit.Call(h.redispatch))
}

// RegisterBacklog mounts the backlog report at /
func RegisterBacklog(r httpkit.Router, s domain.AggregatorPort) {
	h := &handlers{agg: s}
	r.Get("/", httpkit.Call(h.backlog))
}

type handlers struct {
	res domain.ResolutionPort
	agg domain.AggregatorPort
}

// swagger:route POST /referrals/{id}/deleted Referrals referralsMarkDeleted
// @Summary Confirm a granted referral was deleted
// @Tags Referrals
// @Produce json
// @Param id path int true "Referral id"
// @Success 200 {object} domain.Resolution "ok"
// @Failure 404 "unknown referral"
// @Failure 412 "not granted"
// @Router /referrals/{id}/deleted [post]
func (h *handlers) markDeleted(r *stdhttp.Request) httpkit.Response {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return httpkit.Error(err)
	}
	res, err := h.res.MarkDeleted(r.Context(), id)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(res)
}

// swagger:route POST /checks/{id}/redispatch Checks checksRedispatch
// @Summary Re-publish a pending retention check
// @Tags Checks
// @Produce json
// @Param id path int true "Check id"
// @Success 202 {object} domain.Check "accepted"
// @Failure 404 "unknown check"
// @Failure 412 "check already answered"
// @Router /checks/{id}/redispatch [post]
func (h *handlers) redispatch(r *stdhttp.Request) httpkit.Response {
	id, err := httpkit.ParamInt64(r, "id")
	if err != nil {
		return httpkit.Error(err)
	}
	c, err := h.agg.Redispatch(r.Context(), id)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Accepted(c)
}

// swagger:route GET /backlog Checks checksBacklog
// @Summary Open batches and unresolved referrals
// @Tags Checks
// @Produce json
// @Success 200 {object} domain.Backlog "ok"
// @Router /backlog [get]
func (h *handlers) backlog(r *stdhttp.Request) httpkit.Response {
	b, err := h.agg.Backlog(r.Context())
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(b)
}
