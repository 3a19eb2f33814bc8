package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testEvent(id string) AlertEvent {
	return AlertEvent{
		AlertID:       id,
		ShopDomain:    "demo.myshopify.com",
		ProductID:     42,
		ProductTitle:  "Widget",
		PreviousStock: 10,
		CurrentStock:  3,
		Threshold:     5,
		TriggeredAt:   time.Now().UTC(),
	}
}

func TestLogNotifier_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Log: zerolog.New(&buf)}

	n.AlertRaised(context.Background(), testEvent("a-1"))

	out := buf.String()
	for _, want := range []string{`"alert_id":"a-1"`, `"product_id":42`, `"current_stock":3`, "inventory alert raised"} {
		if !strings.Contains(out, want) {
			t.Fatalf("log line missing %q: %s", want, out)
		}
	}
}

func TestFanout_DeliversToChannel(t *testing.T) {
	f := NewFanout(nil, 4)
	defer f.Close()

	f.AlertRaised(context.Background(), testEvent("a-1"))

	select {
	case ev := <-f.Events():
		if ev.AlertID != "a-1" {
			t.Fatalf("received %+v", ev)
		}
	default:
		t.Fatal("event not buffered")
	}
}

func TestFanout_FullBufferDropsWithoutBlocking(t *testing.T) {
	f := NewFanout(nil, 1)
	defer f.Close()
	ctx := context.Background()

	f.AlertRaised(ctx, testEvent("a-1"))

	// With the buffer full this must return immediately rather than block
	// the webhook response.
	done := make(chan struct{})
	go func() {
		f.AlertRaised(ctx, testEvent("a-2"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("AlertRaised blocked on full buffer")
	}

	ev := <-f.Events()
	if ev.AlertID != "a-1" {
		t.Fatalf("kept event = %+v", ev)
	}
	select {
	case ev := <-f.Events():
		t.Fatalf("dropped event delivered: %+v", ev)
	default:
	}
}

func TestFanout_WrapsInner(t *testing.T) {
	var buf bytes.Buffer
	f := NewFanout(LogNotifier{Log: zerolog.New(&buf)}, 1)
	defer f.Close()

	f.AlertRaised(context.Background(), testEvent("a-1"))
	if !strings.Contains(buf.String(), `"alert_id":"a-1"`) {
		t.Fatal("inner notifier not invoked")
	}
}

func TestFanout_CloseIsIdempotent(t *testing.T) {
	f := NewFanout(nil, 1)
	f.Close()
	f.Close()

	if _, open := <-f.Events(); open {
		t.Fatal("channel still open after Close")
	}
}

func TestNewFanout_MinimumBuffer(t *testing.T) {
	f := NewFanout(nil, 0)
	defer f.Close()
	if cap(f.ch) != 1 {
		t.Fatalf("buffer cap = %d, want 1", cap(f.ch))
	}
}
