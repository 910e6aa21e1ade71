package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var errTransportClosed = errors.New("transport closed")

type fakeTransport struct {
	mu     sync.Mutex
	sent   []Message
	open   bool
	pings  int
	closes int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{open: true}
}

func (that *fakeTransport) Send(data []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.open {
		return errTransportClosed
	}

	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	that.sent = append(that.sent, msg)

	return nil
}

func (that *fakeTransport) Ping() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.pings++

	return nil
}

func (that *fakeTransport) Close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.open = false
	that.closes++

	return nil
}

func (that *fakeTransport) IsOpen() bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.open
}

func (that *fakeTransport) messages() []Message {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]Message(nil), that.sent...)
}

func (that *fakeTransport) reset() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.sent = nil
}

func (that *fakeTransport) pingCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.pings
}

// tokenIntrospector treats every token as the username it names, except "bad".
type tokenIntrospector struct{}

func (tokenIntrospector) Introspect(_ context.Context, token string) (string, error) {
	if token == "bad" || token == "" {
		return "", errors.New("rejected")
	}
	return token, nil
}

// blockingIntrospector holds every call until release is closed or the context ends.
type blockingIntrospector struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingIntrospector() *blockingIntrospector {
	return &blockingIntrospector{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (that *blockingIntrospector) Introspect(ctx context.Context, token string) (string, error) {
	that.started <- struct{}{}

	select {
	case <-that.release:
		return token, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func authMessage(t *testing.T, token string) []byte {
	t.Helper()

	data, err := json.Marshal(Message{Type: TypeAuthorization, Token: token})
	require.NoError(t, err)

	return data
}

func typesOf(messages []Message) []MessageType {
	types := make([]MessageType, 0, len(messages))
	for _, msg := range messages {
		types = append(types, msg.Type)
	}
	return types
}
