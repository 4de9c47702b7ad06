package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"datacompliance/internal/modkit/module"
	"datacompliance/internal/platform/bus"
	"datacompliance/internal/platform/bus/bustest"
	"datacompliance/internal/platform/config"
	phttp "datacompliance/internal/platform/net/http"
	"datacompliance/internal/platform/store"
	"datacompliance/internal/platform/store/storetest"
	evalmod "datacompliance/internal/services/evaluator/module"
	refmod "datacompliance/internal/services/referral/module"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testOptions() Options {
	return Options{
		Service: "compliance-api",
		Config:  config.New(),
		Store:   &store.Store{PG: &storetest.Tx{}},
		Bus:     &bustest.Recorder{},
		Topics:  bus.Topics{CheckResults: "retention-check-results", DeletionGranted: "deletion-granted"},
	}
}

func TestWireRegistersEveryModule(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	mods := Wire(testOptions())
	require.Len(t, mods.All(), 5)

	for _, m := range mods.All() {
		_, ok := module.PortsAs[any](m.Name())
		assert.True(t, ok, m.Name())
	}
	ref, ok := module.PortsAs[refmod.Ports]("referral")
	require.True(t, ok)
	assert.NotNil(t, ref.Consumer)

	ev, ok := module.PortsAs[evalmod.Ports]("evaluator")
	require.True(t, ok)
	assert.NotNil(t, ev.Evaluator)
}

func TestMountServesHealthMetricsAndV1(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), testOptions())

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var body healthBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "compliance-api", body.Build.Service)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/manual-retentions/not-an-offender", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)

	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code, "docs are off unless enabled")
}

func TestMountServesDocsWhenEnabled(t *testing.T) {
	module.Reset()
	t.Cleanup(module.Reset)

	opt := testOptions()
	opt.EnableDocs = true
	mux := chi.NewRouter()
	Mount(phttp.AdaptChi(mux), opt)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var spec struct {
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &spec))
	assert.Contains(t, spec.Paths, "/manual-retentions/{offenderNo}")
}
