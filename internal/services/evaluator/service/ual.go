package service

import (
	"context"
	"strings"

	"datacompliance/internal/core/fuzzy"
	"datacompliance/internal/platform/logger"
	"datacompliance/internal/services/evaluator/domain"
	"datacompliance/internal/services/events"
)

type lookup struct {
	by     domain.Identifier
	values []string
}

// CheckUnlawfullyAtLarge searches the reference list by offender number,
// booking numbers, PNC then CRO. The first identifier returning candidates
// decides: a candidate must also pass the name gate, otherwise there is no match
func (s *Svc) CheckUnlawfullyAtLarge(ctx context.Context, subj events.Subject) (*domain.UALMatch, error) {
	r := s.repo()
	for _, l := range lookups(subj) {
		for _, v := range l.values {
			cands, err := r.FindUAL(ctx, l.by, v)
			if err != nil {
				return nil, err
			}
			if len(cands) == 0 {
				continue
			}
			for _, c := range cands {
				if scores, ok := s.nameMatch(subj, c); ok {
					return &domain.UALMatch{Offender: c, MatchedOn: l.by, Scores: scores}, nil
				}
			}
			logger.C(ctx).Info().
				Str("offender_no", subj.OffenderNo).
				Str("matched_on", string(l.by)).
				Int("candidates", len(cands)).
				Msg("UAL identifier hit rejected by name gate")
			return nil, nil
		}
	}
	return nil, nil
}

func lookups(subj events.Subject) []lookup {
	return []lookup{
		{by: domain.ByOffenderNo, values: nonEmpty(subj.OffenderNo)},
		{by: domain.ByBookingNo, values: nonEmpty(subj.BookingNos...)},
		{by: domain.ByPNC, values: nonEmpty(subj.PNC)},
		{by: domain.ByCRO, values: nonEmpty(subj.CRO)},
	}
}

func nonEmpty(vs ...string) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		if v = strings.ToUpper(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// nameMatch tries the subject's first names with and without middle names
func (s *Svc) nameMatch(subj events.Subject, c domain.UALOffender) (fuzzy.Scores, bool) {
	forms := []string{strings.TrimSpace(subj.FirstName + " " + subj.MiddleName)}
	if subj.MiddleName != "" {
		forms = append(forms, subj.FirstName)
	}
	var best fuzzy.Scores
	for _, first := range forms {
		scores, ok := s.gate.Match(fuzzy.Name{FirstNames: first, LastName: subj.LastName}, c.Name())
		if ok {
			return scores, true
		}
		if scores.Min() > best.Min() {
			best = scores
		}
	}
	return best, false
}
