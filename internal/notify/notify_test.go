package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/0xdurkle/rover/internal/domain"
)

func testNotification() domain.Notification {
	return domain.Notification{
		OwnerIDs: []string{"alice", "bob"},
		Category: "Caverns",
		Outcome: &domain.Outcome{
			ItemID: "geode", Name: "Geode", Rarity: domain.RarityRare,
			Category: "Caverns", ResolvedAt: time.Now(),
		},
		PartySize: 2,
	}
}

func TestWebhookNotifier_PostsPayload(t *testing.T) {
	var got webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 5*time.Second)
	if err := n.Notify(context.Background(), testNotification()); err != nil {
		t.Fatalf("Notify() error: %v", err)
	}

	if !strings.Contains(got.Content, "Geode") {
		t.Errorf("content = %q, want the item name", got.Content)
	}
	if len(got.Detail.OwnerIDs) != 2 || got.Detail.Outcome.ItemID != "geode" {
		t.Errorf("detail = %+v", got.Detail)
	}
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL, 5*time.Second)
	if err := n.Notify(context.Background(), testNotification()); err == nil {
		t.Error("expected error for 502 response")
	}
}

func TestWebhookNotifier_ContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	n := NewWebhookNotifier(srv.URL, 5*time.Second)
	if err := n.Notify(ctx, testNotification()); err == nil {
		t.Error("expected error after context deadline")
	}
}

func TestRenderMessage(t *testing.T) {
	n := testNotification()
	msg := renderMessage(n)
	if !strings.Contains(msg, "alice, bob") || !strings.Contains(msg, "Geode") {
		t.Errorf("message = %q", msg)
	}

	n.Outcome = nil
	msg = renderMessage(n)
	if !strings.Contains(msg, "empty-handed") {
		t.Errorf("empty-handed message = %q", msg)
	}
}

func TestLogNotifier(t *testing.T) {
	if err := (LogNotifier{}).Notify(context.Background(), testNotification()); err != nil {
		t.Errorf("Notify() error: %v", err)
	}
}
