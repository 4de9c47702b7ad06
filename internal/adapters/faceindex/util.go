package faceindex

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	perr "datacompliance/internal/platform/errors"
	"datacompliance/internal/services/duplicates/domain"
)

// StatusError wraps a non-2xx response the client does not retry
type StatusError struct {
	Status int
	Body   string
	Err    error
}

// Error interface
func (e *StatusError) Error() string { return e.Err.Error() }

// Unwrap interface
func (e *StatusError) Unwrap() error { return e.Err }

// HTTPStatus interface
func (e *StatusError) HTTPStatus() int { return e.Status }

// statusError maps a final response to a project error. A 422 carrying a
// known failure reason becomes a *domain.IndexError
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	_ = resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var f failure
		if json.Unmarshal(body, &f) == nil {
			switch r := domain.IndexFailure(f.Reason); r {
			case domain.NoFace, domain.PoorQuality, domain.MultipleFaces:
				return &domain.IndexError{Reason: r}
			}
		}
	}

	code := perr.ErrorCodeUnknown
	switch resp.StatusCode {
	case http.StatusNotFound:
		code = perr.ErrorCodeNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		code = perr.ErrorCodeInvalidArgument
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusInternalServerError:
		code = perr.ErrorCodeUnavailable
	}
	return perr.Wrapf(&StatusError{
		Status: resp.StatusCode,
		Body:   string(body),
		Err:    fmt.Errorf("faceindex status %d", resp.StatusCode),
	}, code, "faceindex unexpected status %d body %s", resp.StatusCode, string(body))
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
