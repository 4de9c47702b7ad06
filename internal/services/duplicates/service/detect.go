package service

import (
	"context"
	"iter"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/duplicates/domain"
)

const methodImage = "IMAGE"

// Scan walks the offender's uploads, searches the index for each face and
// yields every distinct cross-offender pair. Stopping early is safe and a
// later scan converges on the same set
func (s *Svc) Scan(ctx context.Context, offenderNo string) iter.Seq2[domain.ImageDuplicate, error] {
	return func(yield func(domain.ImageDuplicate, error) bool) {
		r := s.repo()
		uploads, err := r.UploadsFor(ctx, offenderNo)
		if err != nil {
			yield(domain.ImageDuplicate{}, err)
			return
		}
		seen := make(map[int64]struct{})
		for _, u := range uploads {
			matches, err := s.index.SearchFaces(ctx, u.FaceID, s.cfg.Threshold)
			if err != nil {
				yield(domain.ImageDuplicate{}, err)
				return
			}
			for _, m := range matches {
				if m.FaceID == u.FaceID {
					continue
				}
				cand, err := r.UploadByFace(ctx, m.FaceID)
				if perr.IsCode(err, perr.ErrorCodeNotFound) {
					err = perr.Integrityf("face %s matched upload %d but has no upload record", m.FaceID, u.ID)
				}
				if err != nil {
					yield(domain.ImageDuplicate{}, err)
					return
				}
				if cand.OffenderNo == offenderNo {
					continue
				}
				d, created, err := r.FindOrCreate(ctx, u.ID, cand.ID, m.Similarity, s.cfg.Now())
				if err != nil {
					yield(domain.ImageDuplicate{}, err)
					return
				}
				if created {
					metrics.DuplicatesDetected.WithLabelValues(methodImage).Inc()
				}
				if _, ok := seen[d.ID]; ok {
					continue
				}
				seen[d.ID] = struct{}{}
				if !yield(d, nil) {
					return
				}
			}
		}
	}
}

// FindDuplicates collects Scan. An integrity error aborts the whole pass
func (s *Svc) FindDuplicates(ctx context.Context, offenderNo string) ([]domain.ImageDuplicate, error) {
	var out []domain.ImageDuplicate
	for d, err := range s.Scan(ctx, offenderNo) {
		if err != nil {
			if perr.IsCode(err, perr.ErrorCodeIntegrity) {
				logger.C(ctx).Error().Err(err).Str("offender_no", offenderNo).Msg("similarity index out of step with uploads")
			}
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
