package api

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/0xdurkle/rover/internal/app/expedition"
	"github.com/0xdurkle/rover/internal/app/loot"
	"github.com/0xdurkle/rover/internal/app/party"
	"github.com/0xdurkle/rover/internal/domain"
	"github.com/0xdurkle/rover/internal/infra/catalog"
	"github.com/0xdurkle/rover/internal/infra/sqlite"
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, domain.Notification) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := catalog.NewStore("")
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	resolver := loot.NewSeededResolver(1)
	exp := expedition.NewService(db, store, resolver, noopNotifier{}, expedition.DefaultConfig())
	parties := party.NewCoordinator(db, store, resolver, noopNotifier{}, party.DefaultConfig())

	srv := httptest.NewServer(NewServer(db, store, exp, parties).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// ─── Expeditions ────────────────────────────────────────────────────────────

func TestAPI_StartExpedition(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/expeditions", startExpeditionRequest{
		OwnerID: "alice", Category: "Caverns", DurationUnits: 4,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want 201", resp.StatusCode)
	}
	var e domain.Expedition
	decode(t, resp, &e)
	if e.ID == "" || e.OwnerID != "alice" {
		t.Errorf("expedition = %+v", e)
	}

	// Second start for the same owner conflicts.
	resp = postJSON(t, srv.URL+"/api/expeditions", startExpeditionRequest{
		OwnerID: "alice", Category: "Caverns", DurationUnits: 4,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate status = %d, want 409", resp.StatusCode)
	}
}

func TestAPI_StartExpedition_Validation(t *testing.T) {
	srv := newTestServer(t)

	cases := []struct {
		name string
		req  startExpeditionRequest
		want int
	}{
		{"missing owner", startExpeditionRequest{Category: "Caverns", DurationUnits: 4}, http.StatusBadRequest},
		{"unknown category", startExpeditionRequest{OwnerID: "a", Category: "Nowhere", DurationUnits: 4}, http.StatusBadRequest},
		{"zero duration", startExpeditionRequest{OwnerID: "a", Category: "Caverns"}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := postJSON(t, srv.URL+"/api/expeditions", tc.req)
		resp.Body.Close()
		if resp.StatusCode != tc.want {
			t.Errorf("%s: status = %d, want %d", tc.name, resp.StatusCode, tc.want)
		}
	}
}

func TestAPI_ActiveExpedition(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/expeditions/active?owner_id=alice")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404 before any start", resp.StatusCode)
	}

	postJSON(t, srv.URL+"/api/expeditions", startExpeditionRequest{
		OwnerID: "alice", Category: "Caverns", DurationUnits: 4,
	}).Body.Close()

	resp, err = http.Get(srv.URL + "/api/expeditions/active?owner_id=alice")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var e domain.Expedition
	decode(t, resp, &e)
	if e.OwnerID != "alice" {
		t.Errorf("expedition = %+v", e)
	}
}

func TestAPI_ForceComplete(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/expeditions", startExpeditionRequest{
		OwnerID: "alice", Category: "Caverns", DurationUnits: 4,
	})
	var e domain.Expedition
	decode(t, resp, &e)

	resp = postJSON(t, srv.URL+"/api/expeditions/"+e.ID+"/force-complete", struct{}{})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var result struct {
		Replayed bool `json:"replayed"`
	}
	decode(t, resp, &result)
	if result.Replayed {
		t.Error("first force-complete marked replayed")
	}

	// A second force-complete is a replay, still 200.
	resp = postJSON(t, srv.URL+"/api/expeditions/"+e.ID+"/force-complete", struct{}{})
	decode(t, resp, &result)
	if !result.Replayed {
		t.Error("second force-complete not marked replayed")
	}

	// Unknown id is 404.
	resp = postJSON(t, srv.URL+"/api/expeditions/missing/force-complete", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// ─── Parties ────────────────────────────────────────────────────────────────

func TestAPI_PartyLifecycle(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/parties", createPartyRequest{
		CreatorID: "alice", Category: "Caverns", DurationUnits: 4,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var p domain.Party
	decode(t, resp, &p)
	if len(p.Members) != 1 {
		t.Errorf("party = %+v", p)
	}

	resp = postJSON(t, srv.URL+"/api/parties/"+p.ID+"/join", joinPartyRequest{OwnerID: "bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("join status = %d, want 200", resp.StatusCode)
	}
	decode(t, resp, &p)
	if len(p.Members) != 2 {
		t.Errorf("members = %+v, want 2", p.Members)
	}

	// Rejoin conflicts.
	resp = postJSON(t, srv.URL+"/api/parties/"+p.ID+"/join", joinPartyRequest{OwnerID: "bob"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("rejoin status = %d, want 409", resp.StatusCode)
	}

	// Read back.
	getResp, err := http.Get(srv.URL + "/api/parties/" + p.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want 200", getResp.StatusCode)
	}
	decode(t, getResp, &p)
	if len(p.Members) != 2 {
		t.Errorf("fetched party = %+v", p)
	}

	// Unknown party is 404.
	resp = postJSON(t, srv.URL+"/api/parties/missing/join", joinPartyRequest{OwnerID: "carol"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown party status = %d, want 404", resp.StatusCode)
	}
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func TestAPI_CatalogAndOdds(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/catalog")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	var cat struct {
		Categories []string `json:"categories"`
	}
	decode(t, resp, &cat)
	if len(cat.Categories) == 0 {
		t.Error("catalog has no categories")
	}

	resp, err = http.Get(srv.URL + "/api/catalog/odds?category=Caverns&duration_units=12&group_size=3")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("odds status = %d, want 200", resp.StatusCode)
	}
	var view oddsView
	decode(t, resp, &view)
	if view.GroupSize != 3 || len(view.Odds) == 0 {
		t.Errorf("odds view = %+v", view)
	}
	for _, o := range view.Odds {
		if o.Item.ID == "geode" && math.Abs(o.Probability-0.06) > 1e-9 {
			t.Errorf("geode odds = %v, want 0.06 (2.0 multiplier + 2 extras)", o.Probability)
		}
	}

	// Unknown category is 400.
	resp, err = http.Get(srv.URL + "/api/catalog/odds?category=Nowhere&duration_units=4")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}
