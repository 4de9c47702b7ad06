// Package repo provides postgres access for image uploads and image duplicates
package repo

import (
	"context"
	"time"

	"datacompliance/internal/modkit/repokit"
	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/services/duplicates/domain"
)

// Repo is the persistence surface for duplicate detection
type Repo interface {
	UploadsFor(ctx context.Context, offenderNo string) ([]domain.Upload, error)
	// UploadByFace returns perr.ErrorCodeNotFound when no upload carries faceID
	UploadByFace(ctx context.Context, faceID string) (domain.Upload, error)
	GetUpload(ctx context.Context, offenderNo string, imageID int64) (domain.Upload, error)
	// InsertUpload stores u once per (offender, image) and returns the stored row
	InsertUpload(ctx context.Context, u domain.Upload) (domain.Upload, bool, error)

	// FindOrCreate returns the duplicate for the unordered pair, creating it when absent
	FindOrCreate(ctx context.Context, a, b int64, similarity float64, at time.Time) (domain.ImageDuplicate, bool, error)
	// FindDuplicate looks a pair up regardless of argument order
	FindDuplicate(ctx context.Context, a, b int64) (domain.ImageDuplicate, error)
}

type (
	// PG binds the duplicates repo to a Queryer
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres duplicates repository binder
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }

const uploadCols = `upload_id, offender_no, offender_image_id, face_id, upload_date_time`

func scanUpload(row store.Row) (domain.Upload, error) {
	var u domain.Upload
	err := row.Scan(&u.ID, &u.OffenderNo, &u.OffenderImageID, &u.FaceID, &u.UploadedAt)
	return u, err
}

// UploadsFor lists an offender's uploads oldest first
func (r *queries) UploadsFor(ctx context.Context, offenderNo string) ([]domain.Upload, error) {
	out, err := store.Many(ctx, r.q, scanUpload, `
		SELECT `+uploadCols+` FROM offender_image_upload
		WHERE offender_no = $1
		ORDER BY upload_date_time, upload_id
	`, offenderNo)
	return out, perr.FromPostgresf(err, "uploads for %s", offenderNo)
}

// UploadByFace resolves a face signature to its upload
func (r *queries) UploadByFace(ctx context.Context, faceID string) (domain.Upload, error) {
	u, err := store.One(ctx, r.q, scanUpload,
		`SELECT `+uploadCols+` FROM offender_image_upload WHERE face_id = $1`, faceID)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return u, perr.NotFoundf("no upload for face %s", faceID)
	}
	return u, perr.FromPostgresf(err, "upload for face %s", faceID)
}

// GetUpload loads the upload for one offender image
func (r *queries) GetUpload(ctx context.Context, offenderNo string, imageID int64) (domain.Upload, error) {
	u, err := store.One(ctx, r.q, scanUpload,
		`SELECT `+uploadCols+` FROM offender_image_upload WHERE offender_no = $1 AND offender_image_id = $2`,
		offenderNo, imageID)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return u, perr.NotFoundf("image %d of %s not uploaded", imageID, offenderNo)
	}
	return u, perr.FromPostgresf(err, "upload of image %d", imageID)
}

// InsertUpload inserts an upload or returns the one already stored for the image
func (r *queries) InsertUpload(ctx context.Context, u domain.Upload) (domain.Upload, bool, error) {
	out, err := store.One(ctx, r.q, scanUpload, `
		INSERT INTO offender_image_upload (offender_no, offender_image_id, face_id, upload_date_time)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (offender_no, offender_image_id) DO NOTHING
		RETURNING `+uploadCols, u.OffenderNo, u.OffenderImageID, u.FaceID, u.UploadedAt)
	if err == nil {
		return out, true, nil
	}
	if !perr.IsCode(err, perr.ErrorCodeNotFound) {
		return out, false, perr.FromPostgresf(err, "insert upload of image %d", u.OffenderImageID)
	}
	out, err = r.GetUpload(ctx, u.OffenderNo, u.OffenderImageID)
	return out, false, err
}

const duplicateSelect = `
	SELECT d.image_duplicate_id, d.upload_a, d.upload_b, ua.offender_no, ub.offender_no, d.similarity, d.detected_at
	FROM image_duplicate d
	JOIN offender_image_upload ua ON ua.upload_id = d.upload_a
	JOIN offender_image_upload ub ON ub.upload_id = d.upload_b`

func scanDuplicate(row store.Row) (domain.ImageDuplicate, error) {
	var d domain.ImageDuplicate
	err := row.Scan(&d.ID, &d.UploadA, &d.UploadB, &d.OffenderA, &d.OffenderB, &d.Similarity, &d.DetectedAt)
	return d, err
}

// FindDuplicate loads the duplicate for a pair of uploads in either order
func (r *queries) FindDuplicate(ctx context.Context, a, b int64) (domain.ImageDuplicate, error) {
	d, err := store.One(ctx, r.q, scanDuplicate, duplicateSelect+`
		WHERE LEAST(d.upload_a, d.upload_b) = LEAST($1::bigint, $2::bigint)
		  AND GREATEST(d.upload_a, d.upload_b) = GREATEST($1::bigint, $2::bigint)
	`, a, b)
	if perr.IsCode(err, perr.ErrorCodeNotFound) {
		return d, perr.NotFoundf("no duplicate for uploads %d and %d", a, b)
	}
	return d, perr.FromPostgresf(err, "duplicate for uploads %d and %d", a, b)
}

// FindOrCreate inserts the pair unless any ordering of it exists. A concurrent
// insert that wins the race is picked up by the follow-up lookup
func (r *queries) FindOrCreate(ctx context.Context, a, b int64, similarity float64, at time.Time) (domain.ImageDuplicate, bool, error) {
	if a == b {
		return domain.ImageDuplicate{}, false, perr.Validationf("upload %d cannot duplicate itself", a)
	}
	id, err := store.Scalar[int64](ctx, r.q, `
		INSERT INTO image_duplicate (upload_a, upload_b, similarity, detected_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (LEAST(upload_a, upload_b), GREATEST(upload_a, upload_b)) DO NOTHING
		RETURNING image_duplicate_id
	`, a, b, similarity, at)
	created := err == nil
	if err != nil && !perr.IsNoRows(err) {
		return domain.ImageDuplicate{}, false, perr.FromPostgresf(err, "insert duplicate for uploads %d and %d", a, b)
	}
	d, err := r.FindDuplicate(ctx, a, b)
	if err != nil {
		return d, false, err
	}
	if created && d.ID != id {
		return d, false, perr.Integrityf("duplicate %d inserted but pair resolves to %d", id, d.ID)
	}
	return d, created, nil
}
