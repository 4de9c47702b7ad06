package service

import (
	"context"

	"datacompliance/internal/platform/logger"
	"datacompliance/internal/platform/metrics"
	"datacompliance/internal/services/duplicates/domain"
)

// Verify compares every image of one offender with every image of the other.
// One comparison at or above the threshold confirms the duplicate; all below
// marks it a false positive; too few images on either side leaves it unverifiable
func (s *Svc) Verify(ctx context.Context, d domain.ImageDuplicate) (domain.Verdict, error) {
	v, err := s.verify(ctx, d)
	if err != nil {
		return "", err
	}
	metrics.DuplicateVerdicts.WithLabelValues(string(v)).Inc()
	return v, nil
}

func (s *Svc) verify(ctx context.Context, d domain.ImageDuplicate) (domain.Verdict, error) {
	r := s.repo()
	left, err := r.UploadsFor(ctx, d.OffenderA)
	if err != nil {
		return "", err
	}
	right, err := r.UploadsFor(ctx, d.OffenderB)
	if err != nil {
		return "", err
	}
	if len(left) < s.cfg.MinImages || len(right) < s.cfg.MinImages {
		return domain.Unverifiable, nil
	}
	for _, a := range left {
		for _, b := range right {
			score, err := s.index.Compare(ctx, a.FaceID, b.FaceID)
			if err != nil {
				return "", err
			}
			if score >= s.cfg.Threshold {
				return domain.Confirmed, nil
			}
		}
	}
	return domain.FalsePositive, nil
}

// CheckImageDuplicates finds the offender's duplicates and runs each through the gate
func (s *Svc) CheckImageDuplicates(ctx context.Context, offenderNo string) (domain.Finding, error) {
	f := domain.Finding{OffenderNo: offenderNo}
	dups, err := s.FindDuplicates(ctx, offenderNo)
	if err != nil {
		return f, err
	}
	for _, d := range dups {
		v, err := s.Verify(ctx, d)
		if err != nil {
			return f, err
		}
		f.Add(d.ID, v)
	}
	logger.C(ctx).Debug().
		Str("offender_no", offenderNo).
		Int("confirmed", len(f.Confirmed)).
		Int("false_positives", len(f.FalsePositives)).
		Int("unverifiable", len(f.Unverifiable)).
		Msg("image duplicates checked")
	return f, nil
}
