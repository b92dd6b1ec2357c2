package brokerage_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/brokerage"
	"github.com/OceanLab-Technology/masterJGS/internal/model"
	"github.com/OceanLab-Technology/masterJGS/internal/store"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := brokerage.NewService(store.NewSeededMemoryStore(), nil)

	r := chi.NewRouter()
	r.Get("/api/brokerage/segment", svc.ListSegments)
	r.Patch("/api/brokerage/segment", svc.BatchUpdateSegments)
	r.Post("/api/brokerage/segment/{id}/block", svc.ToggleSegmentBlock)
	r.Get("/api/brokerage/scripts", svc.ListScripts)
	r.Post("/api/brokerage/scripts", svc.CreateScript)
	r.Put("/api/brokerage/scripts/{id}", svc.UpdateScript)
	r.Delete("/api/brokerage/scripts/{id}", svc.DeleteScript)
	r.Post("/api/brokerage/scripts/bulk-delete", svc.BulkDeleteScripts)
	r.Post("/api/brokerage/scripts/{id}/block", svc.ToggleScriptBlock)
	r.Get("/api/brokerage/clients/{clientID}/rates", svc.ListClientRates)
	r.Post("/api/brokerage/clients/{clientID}/rates", svc.CreateClientRate)
	r.Put("/api/brokerage/clients/{clientID}/rates/{id}", svc.UpdateClientRate)
	r.Delete("/api/brokerage/clients/{clientID}/rates/{id}", svc.DeleteClientRate)
	r.Post("/api/brokerage/clients/{clientID}/rates/bulk-delete", svc.BulkDeleteClientRates)
	r.Get("/api/brokerage/resolve", svc.ResolveRate)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestListSegments(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/segment", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	segments := decode[[]model.Segment](t, resp)
	if len(segments) != 5 {
		t.Fatalf("expected 5 segments, got %d", len(segments))
	}
	if segments[0].Title != "NSE" || segments[4].Title != "NCDEX" {
		t.Errorf("unexpected segment order: %s .. %s", segments[0].Title, segments[4].Title)
	}
	if !segments[4].IsBlocked {
		t.Error("NCDEX should be seeded blocked")
	}
}

func TestBatchUpdateSegments_SkipsBlockedAndAbsent(t *testing.T) {
	srv := newTestServer(t)

	// NSE (1) is editable, NCDEX (5) is blocked, 99 does not exist.
	updates := []brokerage.SegmentMasterUpdate{
		{ID: 1, MasterValue: d(0.15)},
		{ID: 5, MasterValue: d(0.20)},
		{ID: 99, MasterValue: d(0.05)},
	}
	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/brokerage/segment", updates)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	out := decode[brokerage.SegmentBatchResponse](t, resp)
	if len(out.Updated) != 1 {
		t.Fatalf("expected exactly 1 applied update, got %d", len(out.Updated))
	}
	if out.Updated[0].ID != 1 || !out.Updated[0].MasterValue.Equal(d(0.15)) {
		t.Errorf("unexpected applied update: %+v", out.Updated[0])
	}

	// The blocked segment's master value is untouched.
	list := decode[[]model.Segment](t, doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/segment", nil))
	if !list[4].MasterValue.Equal(d(0.01)) {
		t.Errorf("blocked segment master changed to %s", list[4].MasterValue)
	}
}

func TestBatchUpdateSegments_NegativeRejectsWholeBatch(t *testing.T) {
	srv := newTestServer(t)

	updates := []brokerage.SegmentMasterUpdate{
		{ID: 1, MasterValue: d(0.15)},
		{ID: 2, MasterValue: d(-1)},
	}
	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/brokerage/segment", updates)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	// Nothing from the batch applied, including the valid first entry.
	list := decode[[]model.Segment](t, doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/segment", nil))
	if !list[0].MasterValue.Equal(d(0.10)) {
		t.Errorf("valid entry of rejected batch was applied: %s", list[0].MasterValue)
	}
}

func TestToggleSegmentBlock(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/segment/1/block", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	seg := decode[model.Segment](t, resp)
	if !seg.IsBlocked {
		t.Error("expected NSE to be blocked after toggle")
	}

	// Master edits are now rejected for it.
	out := decode[brokerage.SegmentBatchResponse](t, doJSON(t, http.MethodPatch,
		srv.URL+"/api/brokerage/segment", []brokerage.SegmentMasterUpdate{{ID: 1, MasterValue: d(0.5)}}))
	if len(out.Updated) != 0 {
		t.Errorf("blocked segment accepted a master edit")
	}

	// Toggling back reopens it.
	seg = decode[model.Segment](t, doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/segment/1/block", nil))
	if seg.IsBlocked {
		t.Error("expected NSE unblocked after second toggle")
	}
}

func TestScripts_SearchFilter(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/scripts?q=rel", nil)
	scripts := decode[[]model.Script](t, resp)
	if len(scripts) != 1 || scripts[0].Symbol != "RELIANCE" {
		t.Fatalf("expected only RELIANCE for q=rel, got %+v", scripts)
	}

	// No match yields an empty array, not null.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/scripts?q=zzz", nil)
	scripts = decode[[]model.Script](t, resp)
	if scripts == nil || len(scripts) != 0 {
		t.Errorf("expected empty slice for no matches, got %v", scripts)
	}
}

func TestCreateScript(t *testing.T) {
	srv := newTestServer(t)

	in := model.Script{ScriptName: "Wipro", Symbol: "WIPRO", Segment: "NSE", Percentage: true, AdminValue: d(0.18), MasterValue: d(0.04)}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/scripts", in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[model.Script](t, resp)
	if created.ID != 6 {
		t.Errorf("expected id 6 after 5 seeded scripts, got %d", created.ID)
	}
}

func TestCreateScript_MissingSymbol(t *testing.T) {
	srv := newTestServer(t)

	in := model.Script{ScriptName: "Wipro", Segment: "NSE"}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/scripts", in)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestUpdateScript_BlockedRejectsMasterEdit(t *testing.T) {
	srv := newTestServer(t)

	// Script 5 (NIFTY) is seeded blocked; changing its master must 409.
	in := model.Script{ScriptName: "Nifty 50 Futures", Symbol: "NIFTY", Segment: "F&O", AdminValue: d(25), MasterValue: d(20)}
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/brokerage/scripts/5", in)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	// Same payload with the master left alone is fine.
	in.MasterValue = d(15)
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/brokerage/scripts/5", in)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for non-master edit of blocked script, got %d", resp.StatusCode)
	}
}

func TestUpdateScript_CannotUnblockViaPut(t *testing.T) {
	srv := newTestServer(t)

	in := model.Script{ScriptName: "Nifty 50 Futures", Symbol: "NIFTY", Segment: "F&O", AdminValue: d(25), MasterValue: d(15), IsBlocked: false}
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/brokerage/scripts/5", in)
	updated := decode[model.Script](t, resp)
	if !updated.IsBlocked {
		t.Error("PUT must not change blocking state")
	}
}

func TestBulkDeleteScripts(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/scripts/bulk-delete",
		brokerage.BulkDeleteRequest{IDs: []int64{2, 3, 99}})
	out := decode[brokerage.BulkDeleteResponse](t, resp)
	if out.Deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", out.Deleted)
	}

	scripts := decode[[]model.Script](t, doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/scripts", nil))
	if len(scripts) != 3 {
		t.Fatalf("expected 3 survivors, got %d", len(scripts))
	}
	for i, want := range []int64{1, 4, 5} {
		if scripts[i].ID != want {
			t.Errorf("survivor %d: expected id %d, got %d", i, want, scripts[i].ID)
		}
	}
}

func TestDeleteScript_NotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/brokerage/scripts/99", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestClientRates_CRUD(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/brokerage/clients/CL003/rates"

	in := model.RateEntry{
		ApplicationType: model.ScopeSegment,
		Segment:         "NSE",
		BrokerageType:   model.KindPercentage,
		AdminValue:      d(0.28),
		MasterValue:     d(0.07),
	}
	resp := doJSON(t, http.MethodPost, base, in)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	created := decode[model.RateEntry](t, resp)
	if created.ClientID != "CL003" {
		t.Errorf("client id from path not applied: %s", created.ClientID)
	}

	// Update: the payload's admin value is ignored, only master sticks.
	created.AdminValue = d(9.99)
	created.MasterValue = d(0.09)
	resp = doJSON(t, http.MethodPut, fmt.Sprintf("%s/%d", base, created.ID), created)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	updated := decode[model.RateEntry](t, resp)
	if !updated.AdminValue.Equal(d(0.28)) {
		t.Errorf("admin value is read-only on update, got %s", updated.AdminValue)
	}
	if !updated.MasterValue.Equal(d(0.09)) {
		t.Errorf("master value not applied, got %s", updated.MasterValue)
	}

	resp = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/%d", base, created.ID), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected 204, got %d", resp.StatusCode)
	}
}

func TestCreateClientRate_SegmentScopeRequiresSegment(t *testing.T) {
	srv := newTestServer(t)

	in := model.RateEntry{
		ApplicationType: model.ScopeSegment,
		BrokerageType:   model.KindPercentage,
		AdminValue:      d(0.2),
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/clients/CL003/rates", in)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestListClientRates_ScopedAndSearchable(t *testing.T) {
	srv := newTestServer(t)

	entries := decode[[]model.RateEntry](t, doJSON(t, http.MethodGet,
		srv.URL+"/api/brokerage/clients/CL001/rates", nil))
	if len(entries) != 3 {
		t.Fatalf("expected 3 seeded CL001 entries, got %d", len(entries))
	}

	entries = decode[[]model.RateEntry](t, doJSON(t, http.MethodGet,
		srv.URL+"/api/brokerage/clients/CL001/rates?q=reliance", nil))
	if len(entries) != 1 || entries[0].ScriptName != "RELIANCE" {
		t.Fatalf("expected the RELIANCE entry for q=reliance, got %+v", entries)
	}
}

func TestResolveRate_ScriptOverrideWins(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet,
		srv.URL+"/api/brokerage/resolve?client=CL001&segment=NSE&script=RELIANCE", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res struct {
		Entry    model.RateEntry `json:"entry"`
		Total    decimal.Decimal `json:"total"`
		Source   string          `json:"source"`
		Override bool            `json:"override"`
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Source != "script" {
		t.Errorf("expected script source, got %s", res.Source)
	}
	if !res.Total.Equal(d(0.25)) {
		t.Errorf("expected total 0.25, got %s", res.Total)
	}
	if !res.Override {
		t.Error("seeded entry should be reported as an override")
	}
}

func TestResolveRate_RequiresClient(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/resolve?segment=NSE", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without client, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/resolve?client=CL001", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without segment or script, got %d", resp.StatusCode)
	}
}

func TestUpdateClientRate_WrongClientNotFound(t *testing.T) {
	srv := newTestServer(t)

	// Entry 1 belongs to CL001; updating it under another client's URL must
	// not reassign it.
	in := model.RateEntry{
		ApplicationType: model.ScopeGlobal,
		BrokerageType:   model.KindPercentage,
		MasterValue:     d(0.99),
	}
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/brokerage/clients/CL999/rates/1", in)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign entry, got %d", resp.StatusCode)
	}

	entries := decode[[]model.RateEntry](t, doJSON(t, http.MethodGet,
		srv.URL+"/api/brokerage/clients/CL001/rates", nil))
	if len(entries) != 3 {
		t.Fatalf("CL001 lost an entry, got %d", len(entries))
	}
	for _, e := range entries {
		if e.ID == 1 {
			if e.ClientID != "CL001" {
				t.Errorf("entry 1 reassigned to %s", e.ClientID)
			}
			if !e.MasterValue.Equal(d(0.10)) {
				t.Errorf("entry 1 master changed to %s", e.MasterValue)
			}
		}
	}
}

func TestDeleteClientRate_WrongClientNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/brokerage/clients/CL999/rates/1", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign entry, got %d", resp.StatusCode)
	}

	entries := decode[[]model.RateEntry](t, doJSON(t, http.MethodGet,
		srv.URL+"/api/brokerage/clients/CL001/rates", nil))
	if len(entries) != 3 {
		t.Errorf("CL001 lost an entry, got %d", len(entries))
	}
}

func TestBulkDeleteClientRates_SkipsForeignEntries(t *testing.T) {
	srv := newTestServer(t)

	// Ids 1-3 belong to CL001, id 4 to CL002; CL002's bulk delete only
	// touches its own entry.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/brokerage/clients/CL002/rates/bulk-delete",
		brokerage.BulkDeleteRequest{IDs: []int64{1, 4}})
	out := decode[brokerage.BulkDeleteResponse](t, resp)
	if out.Deleted != 1 {
		t.Fatalf("expected 1 deleted, got %d", out.Deleted)
	}

	entries := decode[[]model.RateEntry](t, doJSON(t, http.MethodGet,
		srv.URL+"/api/brokerage/clients/CL001/rates", nil))
	if len(entries) != 3 {
		t.Errorf("CL001 entries touched by CL002's bulk delete, got %d", len(entries))
	}
}

// flakySegmentStore fails SaveSegment after a fixed number of successes.
type flakySegmentStore struct {
	*store.MemoryStore
	saveLimit int
	saves     int
}

func (f *flakySegmentStore) SaveSegment(ctx context.Context, seg model.Segment) error {
	if f.saves >= f.saveLimit {
		return errors.New("connection reset by peer")
	}
	f.saves++
	return f.MemoryStore.SaveSegment(ctx, seg)
}

func TestBatchUpdateSegments_ReportsPartialOnPersistFailure(t *testing.T) {
	st := &flakySegmentStore{MemoryStore: store.NewSeededMemoryStore(), saveLimit: 1}
	svc := brokerage.NewService(st, nil)

	r := chi.NewRouter()
	r.Get("/api/brokerage/segment", svc.ListSegments)
	r.Patch("/api/brokerage/segment", svc.BatchUpdateSegments)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	updates := []brokerage.SegmentMasterUpdate{
		{ID: 1, MasterValue: d(0.15)},
		{ID: 2, MasterValue: d(0.16)},
	}
	resp := doJSON(t, http.MethodPatch, srv.URL+"/api/brokerage/segment", updates)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
	out := decode[brokerage.SegmentBatchResponse](t, resp)
	if out.Error == "" {
		t.Error("expected error detail in response")
	}
	// The first row landed before the failure and must be reported.
	if len(out.Updated) != 1 || out.Updated[0].ID != 1 {
		t.Fatalf("expected the persisted first row in updated, got %+v", out.Updated)
	}

	list := decode[[]model.Segment](t, doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/segment", nil))
	if !list[0].MasterValue.Equal(d(0.15)) {
		t.Errorf("persisted first row lost: %s", list[0].MasterValue)
	}
	if !list[1].MasterValue.Equal(d(0.12)) {
		t.Errorf("failed second row applied anyway: %s", list[1].MasterValue)
	}
}

func TestResolveRate_FallsBackToCatalogDefault(t *testing.T) {
	srv := newTestServer(t)

	// CL003 has no entries at all; the NSE segment catalog default governs.
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/brokerage/resolve?client=CL003&segment=NSE", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var res struct {
		Total    decimal.Decimal `json:"total"`
		Source   string          `json:"source"`
		Override bool            `json:"override"`
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Source != "default" || res.Override {
		t.Errorf("expected non-override default, got source=%s override=%v", res.Source, res.Override)
	}
	// NSE seed catalog: admin 0.25 + master 0.10.
	if !res.Total.Equal(d(0.35)) {
		t.Errorf("expected total 0.35, got %s", res.Total)
	}
}
