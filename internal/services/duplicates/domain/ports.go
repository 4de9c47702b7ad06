package domain

import (
	"context"
	"iter"
)

// FaceIndex is the biometric similarity index
type FaceIndex interface {
	// SearchFaces returns faces similar to faceID at or above threshold
	SearchFaces(ctx context.Context, faceID string, threshold float64) ([]FaceMatch, error)
	// Compare scores two indexed faces
	Compare(ctx context.Context, sourceFaceID, targetFaceID string) (float64, error)
	// IndexFace signs an image and returns its face id, or an *IndexError
	IndexFace(ctx context.Context, offenderNo string, imageID int64, image []byte) (string, error)
}

// DetectorPort finds and verifies image duplicates
type DetectorPort interface {
	// Scan yields each distinct duplicate of offenderNo, creating records on first sight
	Scan(ctx context.Context, offenderNo string) iter.Seq2[ImageDuplicate, error]
	FindDuplicates(ctx context.Context, offenderNo string) ([]ImageDuplicate, error)
	Verify(ctx context.Context, d ImageDuplicate) (Verdict, error)
	CheckImageDuplicates(ctx context.Context, offenderNo string) (Finding, error)
}

// IndexerPort registers offender images with the similarity index
type IndexerPort interface {
	IndexImage(ctx context.Context, offenderNo string, imageID int64, image []byte) (Upload, error)
}
