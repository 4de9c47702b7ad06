// Package http provides http transport for image registration and duplicate checks
package http

import (
	"context"
	stdhttp "net/http"

	"datacompliance/internal/modkit/httpkit"
	"datacompliance/internal/platform/net/http/bind"
	"datacompliance/internal/services/duplicates/domain"
)

// images arrive base64 encoded in JSON
var imageBody = bind.JSONOptions{MaxBytes: 16 << 20, DisallowUnknown: true}

// Service is what the handlers need from the duplicates service
type Service interface {
	domain.IndexerPort
	CheckImageDuplicates(ctx context.Context, offenderNo string) (domain.Finding, error)
}

// Register mounts offender image endpoints on the given router
func Register(r httpkit.Router, s Service) {
	h := &handlers{svc: s}
	r.Post("/{offenderNo}/images", httpkit.JSONWith(imageBody, h.index))
	r.Post("/{offenderNo}/image-duplicates", httpkit.Call(h.check))
}

type handlers struct{ svc Service }

// swagger:route POST /offenders/{offenderNo}/images Images imagesIndex
// @Summary Index an offender image
// @Tags Images
// @Accept json
// @Produce json
// @Param offenderNo path string true "Offender number"
// @Param payload body domain.ImageInput true "Image bytes, base64 encoded"
// @Success 201 {object} domain.Upload "created"
// @Router /offenders/{offenderNo}/images [post]
func (h *handlers) index(r *stdhttp.Request, in domain.ImageInput) httpkit.Response {
	offenderNo, err := httpkit.ParamValid(r, "offenderNo", "offender_no")
	if err != nil {
		return httpkit.Error(err)
	}
	u, err := h.svc.IndexImage(r.Context(), offenderNo, in.ImageID, in.Image)
	if err != nil {
		return httpkit.Error(err)
	}
	return httpkit.Created(u)
}

// swagger:route POST /offenders/{offenderNo}/image-duplicates Images imagesDuplicates
// @Summary Find and verify image duplicates
// @Tags Images
// @Produce json
// @Param offenderNo path string true "Offender number"
// @Success 200 {object} domain.Finding "ok"
// @Router /offenders/{offenderNo}/image-duplicates [post]
func (h *handlers) check(r *stdhttp.Request) httpkit.Response {
	offenderNo, err := httpkit.ParamValid(r, "offenderNo", "offender_no")
	if err != nil {
		return httpkit.Error(err)
	}
	f, err := h.svc.CheckImageDuplicates(r.Context(), offenderNo)
	if err != nil {
		return httpkit.Error(err)
	}
	if f.Confirmed == nil {
		f.Confirmed = []int64{}
	}
	return httpkit.OK(f)
}
