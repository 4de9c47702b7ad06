// Package http provides http transport for the scheduler
package http

import (
	stdhttp "net/http"

	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/services/scheduler/domain"
)

// Register mounts scheduler endpoints on the given router
func Register(r httpkit.Router, s domain.SchedulerPort) {
	h := &handlers{svc: s}

	// one-off referral request for a single offender
	r.Post("/adhoc", httpkit.JSON(h.adHoc))
}

type handlers struct{ svc domain.SchedulerPort }

// swagger:route POST /batches/adhoc Batches batchesAdHoc
// @Summary Request an ad hoc referral for one offender
// @Tags Batches
// @Accept json
// @Produce json
// @Param payload body domain.AdHocInput true "Offender and reason"
// @Success 202 {object} domain.Batch "accepted"
// @Router /batches/adhoc [post]
func (h *handlers) adHoc(r *stdhttp.Request, in domain.AdHocInput) httpkit.Response {
	b, err := h.svc.ScheduleAdHoc(r.Context(), in.OffenderNo, in.Reason)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Accepted(b)
}
