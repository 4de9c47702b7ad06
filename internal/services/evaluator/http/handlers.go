// Package http provides http transport for manual retention instructions
package http

import (
	stdhttp "net/http"

	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/services/evaluator/domain"
)

// Register mounts manual retention endpoints on the given router
func Register(r httpkit.Router, s domain.ManualRetentionPort) {
	h := &handlers{svc: s}
	r.Get("/{offenderNo}", httpkit.Call(h.get))
	r.Put("/{offenderNo}", httpkit.JSON(h.put))
	r.Delete("/{offenderNo}", httpkit.Call(h.delete))
}

type handlers struct{ svc domain.ManualRetentionPort }

// swagger:route GET /manual-retentions/{offenderNo} ManualRetention manualRetentionGet
// @Summary Get the manual retention for an offender
// @Tags ManualRetention
// @Produce json
// @Param offenderNo path string true "Offender number"
// @Success 200 {object} domain.ManualRetention "ok"
// @Failure 404 "none recorded"
// @Router /manual-retentions/{offenderNo} [get]
func (h *handlers) get(r *stdhttp.Request) httpkit.Response {
	offenderNo, err := httpkit.ParamValid(r, "offenderNo", "offender_no")
	if err != nil {
		return httpkit.Error(err)
	}
	m, err := h.svc.GetManualRetention(r.Context(), offenderNo)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(m)
}

// swagger:route PUT /manual-retentions/{offenderNo} ManualRetention manualRetentionPut
// @Summary Create or replace a manual retention
// @Tags ManualRetention
// @Accept json
// @Produce json
// @Param offenderNo path string true "Offender number"
// @Param payload body domain.ManualRetentionInput true "Retention reasons"
// @Success 200 {object} domain.ManualRetention "ok"
// @Router /manual-retentions/{offenderNo} [put]
func (h *handlers) put(r *stdhttp.Request, in domain.ManualRetentionInput) httpkit.Response {
	offenderNo, err := httpkit.ParamValid(r, "offenderNo", "offender_no")
	if err != nil {
		return httpkit.Error(err)
	}
	m, err := h.svc.PutManualRetention(r.Context(), offenderNo, in)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.OK(m)
}

// swagger:route DELETE /manual-retentions/{offenderNo} ManualRetention manualRetentionDelete
// @Summary Remove a manual retention
// @Tags ManualRetention
// @Param offenderNo path string true "Offender number"
// @Success 204 "removed"
// @Failure 404 "none recorded"
// @Router /manual-retentions/{offenderNo} [delete]
func (h *handlers) delete(r *stdhttp.Request) httpkit.Response {
	offenderNo, err := httpkit.ParamValid(r, "offenderNo", "offender_no")
	if err != nil {
		return httpkit.Error(err)
	}
	if err := h.svc.DeleteManualRetention(r.Context(), offenderNo); err != nil {
		return httpkit.Error(err)
	}
	return httpkit.NoContent()
}
