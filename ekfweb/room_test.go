package ekfweb

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/westphae/windfusion/ekf"
)

func newTestServer(t *testing.T) (*httptest.Server, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRoom(zap.NewNop().Sugar())
	go r.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle(Path, r)
	srv := httptest.NewServer(mux)
	return srv, func() {
		cancel()
		srv.Close()
	}
}

func TestPublisherReachesListener(t *testing.T) {
	srv, stop := newTestServer(t)
	defer stop()
	host := srv.Listener.Addr().String()

	u := url.URL{Scheme: "ws", Host: host, Path: Path}
	listener, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer listener.Close()

	pub, err := NewPublisher(host, zap.NewNop().Sugar())
	require.NoError(t, err)
	defer pub.Close()
	pub.Monitor = ekf.NewInnovationMonitor(0.9)

	s := ekf.NewState()
	s.VN, s.WN, s.WE = 10, 2, -1
	d := &ekf.DragSample{AccelX: -1.5, AccelY: 0.2, T: 1}
	diag := s.FuseDrag(*d, ekf.DefaultDragConfig())
	pub.Monitor.Add(&diag)

	// The listener may not have joined yet when the first message arrives.
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			if err := pub.Send(s, d, &diag); err != nil {
				return
			}
			select {
			case <-done:
				return
			case <-time.After(20 * time.Millisecond):
			}
		}
	}()

	require.NoError(t, listener.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := listener.ReadMessage()
	close(done)
	<-stopped
	require.NoError(t, err)

	var got DragData
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, 10.0, got.VN)
	assert.Equal(t, s.WN, got.WN)
	assert.Equal(t, -1.5, got.AX)
	assert.Equal(t, diag.Outcome[0].String(), got.OutcomeX)
	assert.Equal(t, diag.Innov[1], got.InnovY)
}

func TestRoomClosesClientsOnCancel(t *testing.T) {
	srv, stop := newTestServer(t)
	host := srv.Listener.Addr().String()

	u := url.URL{Scheme: "ws", Host: host, Path: Path}
	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	defer c.Close()

	stop()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = c.ReadMessage()
	assert.Error(t, err)
}

func TestPublisherSurvivesServerShutdown(t *testing.T) {
	srv, stop := newTestServer(t)
	host := srv.Listener.Addr().String()

	pub, err := NewPublisher(host, zap.NewNop().Sugar())
	require.NoError(t, err)
	s := ekf.NewState()
	require.NoError(t, pub.Send(s, nil, nil))

	stop()

	var failed int
	for i := 0; i < 20; i++ {
		require.NotPanics(t, func() {
			if err := pub.Send(s, nil, nil); err != nil {
				failed++
			}
		}, "send %d", i)
		time.Sleep(10 * time.Millisecond)
	}
	assert.Greater(t, failed, 0)
	assert.NotPanics(t, func() { pub.Close() })
}
