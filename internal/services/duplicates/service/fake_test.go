package service

import (
	"context"
	"sort"
	"sync"
	"time"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/services/duplicates/domain"
	"datacompliance/internal/services/duplicates/repo"
)

type pairKey struct{ lo, hi int64 }

func keyOf(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type fakeRepo struct {
	mu      sync.Mutex
	uploads []domain.Upload
	dups    map[pairKey]domain.ImageDuplicate
	nextDup int64
	err     error
}

var _ repo.Repo = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo { return &fakeRepo{dups: map[pairKey]domain.ImageDuplicate{}} }

// seed registers n uploads for offenderNo with face ids "<offender>-<i>"
func (f *fakeRepo) seed(offenderNo string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range n {
		id := int64(len(f.uploads) + 1)
		f.uploads = append(f.uploads, domain.Upload{
			ID:              id,
			OffenderNo:      offenderNo,
			OffenderImageID: int64(i + 1),
			FaceID:          faceID(offenderNo, i),
			UploadedAt:      time.Unix(id, 0).UTC(),
		})
	}
}

func faceID(offenderNo string, i int) string { return offenderNo + "-" + string(rune('a'+i)) }

func (f *fakeRepo) UploadsFor(_ context.Context, offenderNo string) ([]domain.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.Upload
	for _, u := range f.uploads {
		if u.OffenderNo == offenderNo {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeRepo) UploadByFace(_ context.Context, face string) (domain.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.uploads {
		if u.FaceID == face {
			return u, nil
		}
	}
	return domain.Upload{}, perr.NotFoundf("no upload for face %s", face)
}

func (f *fakeRepo) GetUpload(_ context.Context, offenderNo string, imageID int64) (domain.Upload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.uploads {
		if u.OffenderNo == offenderNo && u.OffenderImageID == imageID {
			return u, nil
		}
	}
	return domain.Upload{}, perr.NotFoundf("image %d of %s not uploaded", imageID, offenderNo)
}

func (f *fakeRepo) InsertUpload(_ context.Context, u domain.Upload) (domain.Upload, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, x := range f.uploads {
		if x.OffenderNo == u.OffenderNo && x.OffenderImageID == u.OffenderImageID {
			return x, false, nil
		}
	}
	u.ID = int64(len(f.uploads) + 1)
	f.uploads = append(f.uploads, u)
	return u, true, nil
}

func (f *fakeRepo) offenderOf(id int64) string {
	for _, u := range f.uploads {
		if u.ID == id {
			return u.OffenderNo
		}
	}
	return ""
}

func (f *fakeRepo) FindOrCreate(_ context.Context, a, b int64, similarity float64, at time.Time) (domain.ImageDuplicate, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.dups[keyOf(a, b)]; ok {
		return d, false, nil
	}
	f.nextDup++
	d := domain.ImageDuplicate{
		ID: f.nextDup, UploadA: a, UploadB: b,
		OffenderA: f.offenderOf(a), OffenderB: f.offenderOf(b),
		Similarity: similarity, DetectedAt: at,
	}
	f.dups[keyOf(a, b)] = d
	return d, true, nil
}

func (f *fakeRepo) FindDuplicate(_ context.Context, a, b int64) (domain.ImageDuplicate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.dups[keyOf(a, b)]; ok {
		return d, nil
	}
	return domain.ImageDuplicate{}, perr.NotFoundf("no duplicate for uploads %d and %d", a, b)
}

// fakeIndex answers searches from a fixed table and scores comparisons from a
// per offender pair score
type fakeIndex struct {
	mu       sync.Mutex
	matches  map[string][]domain.FaceMatch
	scores   map[[2]string]float64
	compared int
	indexed  []string
	indexErr error
	nextFace int
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{matches: map[string][]domain.FaceMatch{}, scores: map[[2]string]float64{}}
}

func (x *fakeIndex) SearchFaces(_ context.Context, face string, threshold float64) ([]domain.FaceMatch, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []domain.FaceMatch
	for _, m := range x.matches[face] {
		if m.Similarity >= threshold {
			out = append(out, m)
		}
	}
	return out, nil
}

func (x *fakeIndex) Compare(_ context.Context, a, b string) (float64, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.compared++
	if s, ok := x.scores[[2]string{a, b}]; ok {
		return s, nil
	}
	return x.scores[[2]string{b, a}], nil
}

func (x *fakeIndex) IndexFace(_ context.Context, offenderNo string, imageID int64, _ []byte) (string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.indexErr != nil {
		return "", x.indexErr
	}
	x.nextFace++
	f := offenderNo + "-face-" + string(rune('0'+x.nextFace))
	x.indexed = append(x.indexed, f)
	return f, nil
}

// scoreAll sets every pairwise score between two offenders' n images
func (x *fakeIndex) scoreAll(a, b string, n int, score float64) {
	for i := range n {
		for j := range n {
			x.scores[[2]string{faceID(a, i), faceID(b, j)}] = score
		}
	}
}

// match makes every face of a find every face of b, and b find a
func (x *fakeIndex) match(a, b string, n int, similarity float64) {
	for i := range n {
		for j := range n {
			x.matches[faceID(a, i)] = append(x.matches[faceID(a, i)], domain.FaceMatch{FaceID: faceID(b, j), Similarity: similarity})
			x.matches[faceID(b, j)] = append(x.matches[faceID(b, j)], domain.FaceMatch{FaceID: faceID(a, i), Similarity: similarity})
		}
	}
}

func ids(ds []domain.ImageDuplicate) []int64 {
	out := make([]int64, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.ID)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
