package postback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postrelay/internal/logger"
	"postrelay/internal/profile"
	pkgerrors "postrelay/pkg/errors"
)

type fakeProfileRepo struct {
	profiles map[string]*profile.Profile
	err      error
}

func (f *fakeProfileRepo) GetBySecret(ctx context.Context, secret string) (*profile.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	if p, ok := f.profiles[secret]; ok {
		return p, nil
	}
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeProfileRepo) Get(ctx context.Context, id string) (*profile.Profile, error) {
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeProfileRepo) GetByOwner(ctx context.Context, ownerUserID int64) (*profile.Profile, error) {
	return nil, pkgerrors.ErrNotFound
}

func (f *fakeProfileRepo) Create(ctx context.Context, p *profile.Profile) error      { return nil }
func (f *fakeProfileRepo) Update(ctx context.Context, p *profile.Profile) error      { return nil }
func (f *fakeProfileRepo) SetEnabled(ctx context.Context, id string, on bool) error  { return nil }
func (f *fakeProfileRepo) RotateSecret(ctx context.Context, id, secret string) error { return nil }

type handlerFixture struct {
	router   *gin.Engine
	pipeline *pipelineFixture
	profiles *fakeProfileRepo
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pf := newPipelineFixture(t)
	prof := testProfile()
	repo := &fakeProfileRepo{profiles: map[string]*profile.Profile{prof.Secret: prof}}

	router := gin.New()
	NewHandler(repo, pf.pipeline, logger.NopLogger()).RegisterRoutes(router)

	return &handlerFixture{router: router, pipeline: pf, profiles: repo}
}

func (f *handlerFixture) postForm(secret string, form url.Values) *httptest.ResponseRecorder {
	target := "/integrations/keitaro/postback"
	if secret != "" {
		target += "?secret=" + secret
	}
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *handlerFixture) postJSON(secret, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost,
		"/integrations/keitaro/postback?secret="+secret, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) postbackResponse {
	t.Helper()
	var resp postbackResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandlePostbackDeliversFormBody(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.postForm("s3cret", url.Values{
		"status":         {"deposit"},
		"transaction_id": {"tx-1"},
		"campaign_id":    {"c1"},
	})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.OK)
	assert.Equal(t, string(OutcomeDelivered), resp.Result)
	assert.NotEmpty(t, resp.EventID)

	require.Len(t, f.pipeline.deliverer.delivered, 1)
	assert.Equal(t, "tx-1", f.pipeline.deliverer.delivered[0].event.DedupKey)
}

func TestHandlePostbackDeliversJSONBody(t *testing.T) {
	f := newHandlerFixture(t)

	// Numeric JSON values are accepted as their string form.
	w := f.postJSON("s3cret", `{"status":"deposit","transaction_id":"tx-1","conversion_revenue":12.5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.pipeline.deliverer.delivered, 1)
	ev := f.pipeline.deliverer.delivered[0].event
	assert.True(t, ev.Revenue.Valid)
	assert.Equal(t, 12.5, ev.Revenue.Value)
}

func TestHandlePostbackUnknownSecret(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.postForm("wrong", url.Values{"status": {"deposit"}, "transaction_id": {"tx-1"}})

	assert.Equal(t, http.StatusForbidden, w.Code)
	// No event record, no delivery.
	assert.Empty(t, f.pipeline.store.appended)
	assert.Empty(t, f.pipeline.deliverer.delivered)
}

func TestHandlePostbackMissingSecret(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.postForm("", url.Values{"status": {"deposit"}})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandlePostbackDisabledProfile(t *testing.T) {
	f := newHandlerFixture(t)
	f.profiles.profiles["s3cret"].Enabled = false

	w := f.postForm("s3cret", url.Values{"status": {"deposit"}, "transaction_id": {"tx-1"}})

	// Accept-but-discard: success response, nothing recorded or delivered.
	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.OK)
	assert.Equal(t, "discarded", resp.Result)
	assert.Empty(t, f.pipeline.store.appended)
	assert.Empty(t, f.pipeline.deliverer.delivered)
}

func TestHandlePostbackDuplicateStaysSuccess(t *testing.T) {
	f := newHandlerFixture(t)
	form := url.Values{"status": {"deposit"}, "transaction_id": {"tx-1"}}

	first := f.postForm("s3cret", form)
	second := f.postForm("s3cret", form)

	// Duplicates are diagnosed in the body, never via the status code.
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, string(OutcomeDuplicate), decodeResponse(t, second).Result)
}

func TestHandlePostbackMalformedBodyDegrades(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.postJSON("s3cret", `{not json`)

	// A broken body degrades to empty fields, which still produce an event
	// with a generated dedup key.
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, f.pipeline.store.appended, 1)
	assert.True(t, f.pipeline.store.appended[0].DedupKeyGenerated)
}
