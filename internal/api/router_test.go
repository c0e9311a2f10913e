package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cheertaboi/offer-engine/internal/repository/memory"
	"github.com/Cheertaboi/offer-engine/internal/service"
)

var testNow = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

const catalog = `
offers:
  - id: 1
    name: Ten percent
    type: percentage
    start_time: 2026-10-01T00:00:00Z
    end_time: 2026-10-31T00:00:00Z
    priority: 1
    auto_apply: true
    rewards:
      - type: percent_discount
        value: {percent: "10"}
  - id: 2
    name: Flat 150
    type: flat
    start_time: 2026-10-01T00:00:00Z
    end_time: 2026-10-31T00:00:00Z
    priority: 1
    auto_apply: true
    min_cart_amount: "900"
    rewards:
      - type: flat_discount
        value: {amount: "150"}
  - id: 3
    name: Save 50
    type: flat
    start_time: 2026-10-01T00:00:00Z
    end_time: 2026-10-31T00:00:00Z
    max_usage_total: 1
    rewards:
      - type: flat_discount
        value: {amount: "50"}
codes:
  - code: SAVE50
    offer_id: 3
    max_uses: 1
`

const cart = `{"customer_id":"alice","items":[{"product_id":"1","quantity":2,"unit_price":"500"}]}`

func newServer(t *testing.T, seed string) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Load([]byte(seed)))
	svc := service.NewOfferService(store, service.Options{Now: func() time.Time { return testNow }})
	srv := httptest.NewServer(NewRouter(svc))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestBestOfferEndpoint(t *testing.T) {
	srv := newServer(t, catalog)

	resp, body := post(t, srv, "/offers/best", cart)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), body["offer_id"])
	assert.Equal(t, "150", body["discount_amount"])
}

func TestBestOfferNoContent(t *testing.T) {
	srv := newServer(t, `offers: []`)

	resp, _ := post(t, srv, "/offers/best", cart)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestEvaluateAndExplainEndpoints(t *testing.T) {
	srv := newServer(t, catalog)
	small := `{"items":[{"product_id":"1","quantity":1,"unit_price":"100"}]}`

	resp, body := post(t, srv, "/offers/evaluate", small)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["offers"], 1)

	resp, body = post(t, srv, "/offers/explain", small)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	offers := body["offers"].([]any)
	require.Len(t, offers, 2)
	// same priority, so the later created offer is listed first
	flat := offers[0].(map[string]any)
	assert.Equal(t, false, flat["applicable"])
	assert.Equal(t, "cart total 100.00 is below the minimum of 900.00", flat["reason"])
}

func TestRequestValidation(t *testing.T) {
	srv := newServer(t, catalog)

	tests := []struct {
		path string
		body string
	}{
		{"/offers/evaluate", `not json`},
		{"/offers/evaluate", `{"items":[{"product_id":"","quantity":1,"unit_price":"1"}]}`},
		{"/offers/evaluate", `{"items":[{"product_id":"1","quantity":0,"unit_price":"1"}]}`},
		{"/offers/best", `{"items":[{"product_id":"1","quantity":1,"unit_price":"-1"}]}`},
		{"/codes/evaluate", cart},
		{"/usages", `{"order_id":"o-1"}`},
		{"/usages", `{"offer_id":1}`},
		{"/admin/offers/1/codes", `{"prefix":"NOT-OK"}`},
		{"/admin/offers/1/codes", `{"max_uses":0}`},
		{"/admin/offers/abc/codes", `{}`},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			resp, body := post(t, srv, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, "InvalidRequest", body["error"])
		})
	}
}

func TestCodeRedemptionFlow(t *testing.T) {
	srv := newServer(t, catalog)

	resp, body := post(t, srv, "/codes/evaluate", `{"code":"save50","items":[{"product_id":"1","quantity":2,"unit_price":"500"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SAVE50", body["code"])
	assert.Equal(t, "50", body["discount_amount"])

	usage := `{"offer_id":3,"customer_id":"alice","order_id":"o-1","discount_amount":"50","code":"SAVE50"}`
	resp, first := post(t, srv, "/usages", usage)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, again := post(t, srv, "/usages", usage)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, first["id"], again["id"])

	resp, body = post(t, srv, "/usages", `{"offer_id":3,"customer_id":"bob","order_id":"o-2","discount_amount":"50"}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "UsageLimitExceeded", body["error"])

	resp, body = post(t, srv, "/codes/evaluate", `{"code":"SAVE50","items":[]}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, "CodeUsageExhausted", body["error"])
	assert.NotEmpty(t, body["reason"])

	resp, body = post(t, srv, "/codes/evaluate", `{"code":"NOPE","items":[]}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "CodeNotFound", body["error"])
}

func TestIssueCodeEndpoint(t *testing.T) {
	srv := newServer(t, catalog)

	resp, body := post(t, srv, "/admin/offers/1/codes", `{"prefix":"vip","max_uses":3}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Regexp(t, `^VIP-[0-9A-F]{8}$`, body["code"])
	assert.Equal(t, float64(3), body["max_uses"])

	resp, body = post(t, srv, "/codes/evaluate", `{"code":"`+body["code"].(string)+`","items":[{"product_id":"1","quantity":1,"unit_price":"200"}]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "20", body["discount_amount"])

	resp, body = post(t, srv, "/admin/offers/99/codes", `{}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "OfferNotFound", body["error"])
}

func TestHealth(t *testing.T) {
	srv := newServer(t, `offers: []`)
	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
