package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dagforge/dagforge/pkg/domain"
	"github.com/dagforge/dagforge/pkg/ports"
)

// recordingBus captures subscription contexts and fans events out
// synchronously.
type recordingBus struct {
	mu       sync.Mutex
	contexts []context.Context
	handlers []ports.EventHandler
}

func (b *recordingBus) Publish(ctx context.Context, topic string, event domain.Event) error {
	b.mu.Lock()
	handlers := append([]ports.EventHandler(nil), b.handlers...)
	b.mu.Unlock()

	for _, h := range handlers {
		_ = h(ctx, event)
	}
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, topic string, handler ports.EventHandler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.contexts = append(b.contexts, ctx)
	b.handlers = append(b.handlers, handler)
	return nil
}

func (b *recordingBus) Unsubscribe(ctx context.Context, topic string) error { return nil }
func (b *recordingBus) Close() error                                        { return nil }

func (b *recordingBus) subscriptionContexts() []context.Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]context.Context(nil), b.contexts...)
}

func newStreamServer(t *testing.T, bus ports.EventBus) (*httptest.Server, func(executionID string) *gorilla.Conn) {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewHandler(bus, zap.NewNop())
	router.GET("/executions/:id/ws", handler.HandleExecutionStream)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	dial := func(executionID string) *gorilla.Conn {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/executions/" + executionID + "/ws"
		conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
		if err != nil {
			t.Fatalf("Dial: %v", err)
		}
		return conn
	}
	return srv, dial
}

func TestStreamDeliversMatchingEvents(t *testing.T) {
	bus := &recordingBus{}
	_, dial := newStreamServer(t, bus)

	conn := dial("exec-1")
	defer conn.Close()

	// Wait for both topic subscriptions before publishing.
	deadline := time.Now().Add(time.Second)
	for len(bus.subscriptionContexts()) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	// An event for another execution is filtered out; the matching one
	// arrives.
	other := domain.Event{ID: "ev-other", ExecutionID: "exec-2", Type: domain.EventTypeTaskStarted}
	if err := bus.Publish(context.Background(), domain.TopicTaskEvents, other); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	match := domain.Event{ID: "ev-match", ExecutionID: "exec-1", Type: domain.EventTypeTaskStarted}
	if err := bus.Publish(context.Background(), domain.TopicTaskEvents, match); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	var got domain.Event
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if got.ID != "ev-match" {
		t.Errorf("event ID = %s, want ev-match (filter leaked exec-2 event)", got.ID)
	}
}

func TestClientDisconnectEndsSubscriptions(t *testing.T) {
	bus := &recordingBus{}
	_, dial := newStreamServer(t, bus)

	conn := dial("exec-1")

	deadline := time.Now().Add(time.Second)
	for len(bus.subscriptionContexts()) < 2 {
		if time.Now().After(deadline) {
			t.Fatal("handler never subscribed")
		}
		time.Sleep(time.Millisecond)
	}

	// Closing the client must cancel the subscription contexts even
	// though no event is ever written.
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	deadline = time.Now().Add(2 * time.Second)
	for {
		done := true
		for _, ctx := range bus.subscriptionContexts() {
			if ctx.Err() == nil {
				done = false
			}
		}
		if done {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("subscription contexts still live after client disconnect")
		}
		time.Sleep(time.Millisecond)
	}
}
