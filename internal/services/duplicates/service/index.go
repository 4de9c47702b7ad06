package service

import (
	"context"
	"errors"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/services/duplicates/domain"
)

// IndexImage signs an offender image and records the upload. An image that is
// already uploaded is returned as is
func (s *Svc) IndexImage(ctx context.Context, offenderNo string, imageID int64, image []byte) (domain.Upload, error) {
	if offenderNo == "" {
		return domain.Upload{}, perr.WithField(perr.Validationf("offender number is required"), "offenderNo")
	}
	if imageID <= 0 {
		return domain.Upload{}, perr.WithField(perr.Validationf("image id must be positive"), "imageId")
	}
	if len(image) == 0 {
		return domain.Upload{}, perr.WithField(perr.Validationf("image is empty"), "image")
	}

	r := s.repo()
	u, err := r.GetUpload(ctx, offenderNo, imageID)
	if err == nil {
		return u, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return u, err
	}

	faceID, err := s.index.IndexFace(ctx, offenderNo, imageID, image)
	if err != nil {
		var ie *domain.IndexError
		if errors.As(err, &ie) {
			return domain.Upload{}, perr.WithField(perr.Validationf("image rejected: %s", ie.Reason), "image")
		}
		return domain.Upload{}, err
	}

	u, created, err := r.InsertUpload(ctx, domain.Upload{
		OffenderNo:      offenderNo,
		OffenderImageID: imageID,
		FaceID:          faceID,
		UploadedAt:      s.cfg.Now(),
	})
	if err != nil {
		return u, err
	}
	if !created {
		logger.C(ctx).Warn().Str("offender_no", offenderNo).Int64("image_id", imageID).Str("face_id", faceID).
			Msg("image uploaded concurrently, new face left unreferenced")
	}
	return u, nil
}
