package sse

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishLoaded_RefreshThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First load triggers view.refresh at once; the second, right after,
	// waits for the window to close.
	b.PublishLoaded(3, "abc", "proceedings")
	b.PublishLoaded(4, "def", "proceedings")

	time.Sleep(50 * time.Millisecond)
	loaded, refresh := 0, 0
	for _, s := range drain(ch) {
		switch {
		case strings.Contains(s, "event: "+EventViewRefresh):
			refresh++
		case strings.Contains(s, "event: "+EventCatalogLoaded):
			loaded++
		}
	}

	if loaded != 2 {
		t.Errorf("catalog.loaded events = %d, want 2", loaded)
	}
	if refresh != 1 {
		t.Errorf("view.refresh events = %d, want 1 (throttled)", refresh)
	}
}

func TestPublishLoaded_TrailingRefresh(t *testing.T) {
	b := NewBroker(200 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLoaded(3, "a", "proceedings")
	b.PublishLoaded(4, "b", "proceedings")
	b.PublishLoaded(5, "c", "proceedings")

	time.Sleep(time.Second)
	var events []string
	for _, s := range drain(ch) {
		switch {
		case strings.Contains(s, "event: "+EventViewRefresh):
			events = append(events, EventViewRefresh)
		case strings.Contains(s, "event: "+EventCatalogLoaded):
			events = append(events, EventCatalogLoaded)
		}
	}

	want := []string{
		EventCatalogLoaded, EventViewRefresh,
		EventCatalogLoaded, EventCatalogLoaded,
		EventViewRefresh,
	}
	if strings.Join(events, ",") != strings.Join(want, ",") {
		t.Errorf("events = %v, want %v", events, want)
	}
}

func TestPublishLoaded_RefreshAfterQuietWindow(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLoaded(1, "a", "proceedings")
	time.Sleep(300 * time.Millisecond)
	b.PublishLoaded(2, "b", "proceedings")
	time.Sleep(300 * time.Millisecond)

	refresh := 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "event: "+EventViewRefresh) {
			refresh++
		}
	}
	if refresh != 2 {
		t.Errorf("view.refresh events = %d, want 2", refresh)
	}
}

func TestPublishLoaded_Payload(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLoaded(3, "abc", "proceedings")
	select {
	case msg := <-ch:
		want := `{"count":3,"checksum":"abc","schema":"proceedings"}`
		if !strings.Contains(string(msg), want) {
			t.Errorf("payload = %q, want %s", msg, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishFailed_NoRefresh(t *testing.T) {
	b := NewBroker(time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishFailed(errors.New("HTTP error status 404"))
	time.Sleep(50 * time.Millisecond)

	msgs := drain(ch)
	if len(msgs) != 1 {
		t.Fatalf("messages = %d, want 1: %q", len(msgs), msgs)
	}
	if !strings.Contains(msgs[0], "event: catalog.failed") || !strings.Contains(msgs[0], "404") {
		t.Errorf("unexpected message %q", msgs[0])
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	// Give handler time to subscribe.
	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishLoaded(1, "x", "preprint")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "event: catalog.loaded") {
		t.Errorf("handler output missing event: %q", body)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Fill buffer (capacity 64); one more must not block.
	for i := 0; i < 70; i++ {
		b.PublishFailed(errors.New("x"))
	}
	if n := b.ClientCount(); n != 1 {
		t.Errorf("clients = %d, want 1", n)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.PublishLoaded(0, "", "proceedings")
	b.PublishFailed(nil)
}
