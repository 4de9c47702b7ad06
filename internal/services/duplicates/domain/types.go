// Package domain holds the image duplicate model and the false positive gate verdicts
package domain

import (
	"slices"
	"time"

	"datacompliance/internal/services/events"
)

// Upload links a face signature in the similarity index to an offender image
type Upload struct {
	ID              int64     `json:"uploadId"`
	OffenderNo      string    `json:"offenderNo"`
	OffenderImageID int64     `json:"offenderImageId"`
	FaceID          string    `json:"faceId"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

// ImageDuplicate pairs two uploads of different offenders believed to show the same face.
// The pair is unordered: (A,B) and (B,A) are the same duplicate
type ImageDuplicate struct {
	ID         int64     `json:"imageDuplicateId"`
	UploadA    int64     `json:"uploadA"`
	UploadB    int64     `json:"uploadB"`
	OffenderA  string    `json:"offenderA"`
	OffenderB  string    `json:"offenderB"`
	Similarity float64   `json:"similarity"`
	DetectedAt time.Time `json:"detectedAt"`
}

// Other returns the offender on the far side of the pair from offenderNo
func (d ImageDuplicate) Other(offenderNo string) string {
	if d.OffenderA == offenderNo {
		return d.OffenderB
	}
	return d.OffenderA
}

// Verdict is the outcome of the false positive gate for one duplicate
type Verdict string

// Gate verdicts
const (
	Confirmed     Verdict = "CONFIRMED"
	FalsePositive Verdict = "FALSE_POSITIVE"
	Unverifiable  Verdict = "UNVERIFIABLE"
)

// FaceMatch is one candidate returned by a similarity search. Similarity is a percentage
type FaceMatch struct {
	FaceID     string  `json:"faceId"`
	Similarity float64 `json:"similarity"`
}

// Finding groups the duplicates of one offender by verdict
type Finding struct {
	OffenderNo     string  `json:"offenderNo"`
	Confirmed      []int64 `json:"confirmedDuplicateIds"`
	FalsePositives []int64 `json:"falsePositiveIds,omitempty"`
	Unverifiable   []int64 `json:"unverifiableIds,omitempty"`
}

// Add files a duplicate id under its verdict
func (f *Finding) Add(id int64, v Verdict) {
	switch v {
	case Confirmed:
		f.Confirmed = append(f.Confirmed, id)
	case FalsePositive:
		f.FalsePositives = append(f.FalsePositives, id)
	default:
		f.Unverifiable = append(f.Unverifiable, id)
	}
}

// Outcome maps the finding to a check status. ok is false when nothing is
// confirmed but some match could not be verified yet, in which case no result
// should be reported
func (f Finding) Outcome() (status events.CheckStatus, ok bool) {
	switch {
	case len(f.Confirmed) > 0:
		return events.CheckRequired, true
	case len(f.Unverifiable) > 0:
		return "", false
	default:
		return events.CheckNotRequired, true
	}
}

// ConfirmedIDs returns the confirmed duplicate ids sorted, never nil
func (f Finding) ConfirmedIDs() []int64 {
	out := slices.Clone(f.Confirmed)
	if out == nil {
		return []int64{}
	}
	slices.Sort(out)
	return out
}

// IndexFailure is a structured refusal from the similarity index
type IndexFailure string

// Index failures
const (
	NoFace        IndexFailure = "NO_FACE"
	PoorQuality   IndexFailure = "POOR_QUALITY"
	MultipleFaces IndexFailure = "MULTIPLE_FACES"
)

// IndexError reports an image the index refused to sign
type IndexError struct {
	Reason IndexFailure
}

func (e *IndexError) Error() string { return "face index rejected image: " + string(e.Reason) }

// ImageInput is the body of an image registration
type ImageInput struct {
	ImageID int64  `json:"imageId" validate:"required,gt=0"`
	Image   []byte `json:"image" validate:"required"`
}
