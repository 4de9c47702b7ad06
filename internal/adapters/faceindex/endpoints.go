package faceindex

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/services/duplicates/domain"
)

var _ domain.FaceIndex = (*Client)(nil)

// SearchFaces returns faces similar to faceID at or above threshold
func (c *Client) SearchFaces(ctx context.Context, faceID string, threshold float64) ([]domain.FaceMatch, error) {
	var out searchResponse
	path := "/faces/" + url.PathEscape(faceID) + "/search"
	if err := c.do(ctx, http.MethodPost, path, searchRequest{
		Collection: c.opts.Collection,
		Threshold:  threshold,
		MaxFaces:   c.opts.MaxFaces,
	}, &out); err != nil {
		return nil, err
	}
	matches := make([]domain.FaceMatch, 0, len(out.Matches))
	for _, m := range out.Matches {
		matches = append(matches, domain.FaceMatch{FaceID: m.FaceID, Similarity: m.Similarity})
	}
	return matches, nil
}

// Compare scores two indexed faces
func (c *Client) Compare(ctx context.Context, sourceFaceID, targetFaceID string) (float64, error) {
	var out compareResponse
	if err := c.do(ctx, http.MethodPost, "/faces/compare", compareRequest{
		Collection:   c.opts.Collection,
		SourceFaceID: sourceFaceID,
		TargetFaceID: targetFaceID,
	}, &out); err != nil {
		return 0, err
	}
	return out.Similarity, nil
}

// IndexFace adds one offender image to the collection and returns its face id
func (c *Client) IndexFace(ctx context.Context, offenderNo string, imageID int64, image []byte) (string, error) {
	var out indexResponse
	if err := c.do(ctx, http.MethodPost, "/faces", indexRequest{
		Collection:      c.opts.Collection,
		ExternalImageID: fmt.Sprintf("%s-%d", offenderNo, imageID),
		Image:           image,
	}, &out); err != nil {
		return "", err
	}
	if out.FaceID == "" {
		return "", perr.Newf(perr.ErrorCodeUnknown, "faceindex returned no face id for image %d", imageID)
	}
	return out.FaceID, nil
}
