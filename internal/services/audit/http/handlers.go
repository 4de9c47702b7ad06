// Package http provides http transport for the decision ledger
package http

import (
	stdhttp "net/http"

	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/services/audit/domain"
)

// Register mounts ledger endpoints on the given router
func Register(r httpkit.Router, s domain.LedgerPort) {
	h := &handlers{svc: s}
	r.Get("/{offenderNo}", httpkit.Call(h.history))
}

type handlers struct{ svc domain.LedgerPort }

// swagger:route GET /decisions/{offenderNo} Decisions decisionsHistory
// @Summary Decision history for an offender
// @Tags Decisions
// @Produce json
// @Param offenderNo path string true "Offender number"
// @Param limit query int false "Maximum entries"
// @Success 200 {array} domain.Entry "ok"
// @Router /decisions/{offenderNo} [get]
func (h *handlers) history(r *stdhttp.Request) httpkit.Response {
	offenderNo, err := httpkit.ParamValid(r, "offenderNo", "offender_no")
	if err != nil {
		return httpkit.Error(err)
	}
	limit, err := httpkit.QueryInt(r, "limit", 0)
	if err != nil {
		return httpkit.Error(err)
	}
	entries, err := h.svc.History(r.Context(), offenderNo, limit)
	if err != nil {
		return httpkit.Error(err)
	}
	if entries == nil {
		entries = []domain.Entry{}
	}
	return httpkit.OK(entries)
}
