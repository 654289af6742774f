package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

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
	b := NewBroker()
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

func TestPublishDelivery(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "inbox.synced", Data: map[string]int{"ingested": 3}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.HasPrefix(s, "id: 1\nevent: inbox.synced\n") {
			t.Errorf("unexpected frame header in %q", s)
		}
		if !strings.Contains(s, `data: {"ingested":3}`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestEventIDsIncrease(t *testing.T) {
	b := NewBroker(WithThrottle(time.Hour))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1})
	b.Publish(Event{Type: "b", Data: 2})
	time.Sleep(50 * time.Millisecond)

	msgs := drain(ch)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if !strings.HasPrefix(msgs[0], "id: 1\n") || !strings.HasPrefix(msgs[1], "id: 2\n") {
		t.Errorf("unexpected ids: %q", msgs)
	}
}

func TestPublishDocumentEvent_ChangedThrottle(t *testing.T) {
	b := NewBroker(WithThrottle(500 * time.Millisecond))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// First event triggers documents.changed, the second is inside the window.
	b.PublishDocumentEvent("uploaded", "d1")
	b.PublishDocumentEvent("cleaned", "d1")

	time.Sleep(50 * time.Millisecond)
	changed, docs := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, "event: "+EventDocumentsChanged) {
			changed++
		} else {
			docs++
		}
	}

	if docs != 2 {
		t.Errorf("document events = %d, want 2", docs)
	}
	if changed != 1 {
		t.Errorf("changed events = %d, want 1 (throttled)", changed)
	}
}

func TestPublishDocumentEvent_Payload(t *testing.T) {
	b := NewBroker(WithThrottle(time.Hour))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("deleted", "abc")
	time.Sleep(50 * time.Millisecond)

	msgs := drain(ch)
	if len(msgs) == 0 {
		t.Fatal("no events delivered")
	}
	first := msgs[0]
	for _, want := range []string{"event: document.deleted", `"id":"abc"`, `"kind":"deleted"`, `"at":"`} {
		if !strings.Contains(first, want) {
			t.Errorf("message %q missing %s", first, want)
		}
	}
}

func TestPublishDocumentEvent_UnknownKindDropped(t *testing.T) {
	b := NewBroker()
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishDocumentEvent("renamed", "d1")
	time.Sleep(50 * time.Millisecond)

	if msgs := drain(ch); len(msgs) != 0 {
		t.Errorf("expected no events, got %v", msgs)
	}
}

func TestNonDocumentEventDoesNotTriggerChanged(t *testing.T) {
	b := NewBroker(WithThrottle(time.Millisecond))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "inbox.synced", Data: 0})
	time.Sleep(50 * time.Millisecond)

	for _, s := range drain(ch) {
		if strings.Contains(s, EventDocumentsChanged) {
			t.Errorf("unexpected %s", s)
		}
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(WithHeartbeat(0))
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

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishDocumentEvent("uploaded", "d1")
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry hint: %q", body)
	}
	if !strings.Contains(body, "event: document.uploaded") {
		t.Errorf("handler output missing event: %q", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSSEHandler_Heartbeat(t *testing.T) {
	b := NewBroker(WithHeartbeat(20 * time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if !strings.Contains(w.Body.String(), ": ping\n\n") {
		t.Errorf("expected keep-alive comment, got %q", w.Body.String())
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(WithClientBuffer(4))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// The overflow must not block the loop.
	for i := 0; i < 10; i++ {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
	if b.ClientCount() != 1 {
		t.Error("broker loop should still be responsive")
	}
	if n := len(drain(ch)); n > 4 {
		t.Errorf("client received %d messages, buffer is 4", n)
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker()
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
	b.Publish(Event{Type: "document.parsed"})
	b.PublishDocumentEvent("parsed", "d1")
	b.Close()
}
