package main

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"socialhub/internal/auth"
	"socialhub/internal/config"
	"socialhub/internal/logger"
	"socialhub/internal/model"
	"socialhub/internal/realtime"
	"socialhub/internal/store/badgerstore"
)

// TestOpenStore_Embedded 組み込みストア選択
func TestOpenStore_Embedded(t *testing.T) {
	req := require.New(t)
	st, err := openStore(context.Background(), config.Config{}, logger.Discard())
	req.NoError(err)
	defer st.Close()

	_, ok := st.(*badgerstore.Store)
	req.True(ok)
	req.NoError(st.Ping(context.Background()))
}

// TestAdmission WebSocket 接続許可
func TestAdmission(t *testing.T) {
	req := require.New(t)
	st, err := badgerstore.Open("")
	req.NoError(err)
	defer st.Close()

	svc := auth.NewService(st, "secret", time.Hour, auth.WithCost(4))
	token, err := svc.Register(context.Background(), "alice", "pw")
	req.NoError(err)

	req.Nil(admission(config.Config{}, svc), "open by default")

	gate := admission(config.Config{WSRequireToken: true}, svc)
	req.NotNil(gate)

	r := httptest.NewRequest("GET", "/ws?sender=alice&receiver=bob&token="+token, nil)
	req.NoError(gate(r, realtime.Labels{Sender: "alice", Receiver: "bob"}))
	req.Error(gate(r, realtime.Labels{Sender: "bob", Receiver: "alice"}))

	r = httptest.NewRequest("GET", "/ws?sender=alice&receiver=bob", nil)
	req.Error(gate(r, realtime.Labels{Sender: "alice", Receiver: "bob"}))
}

// TestServe_ShutdownClosesWebSockets 停止時に WebSocket へ 1001 を送って終了
func TestServe_ShutdownClosesWebSockets(t *testing.T) {
	req := require.New(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	req.NoError(err)

	cfg := config.Config{
		Env:            "test",
		ImageDir:       t.TempDir(),
		PublicBaseURL:  "http://localhost",
		JWTSecret:      "secret",
		TokenTTL:       time.Hour,
		DBQueryTimeout: time.Second,
		DedupCacheSize: 16,
		WSSendQueue:    8,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errc := make(chan error, 1)
	go func() { errc <- serve(ctx, ln, cfg, logger.Discard()) }()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws?sender=alice&receiver=bob", nil)
	req.NoError(err)
	defer ws.Close()

	// the echo proves the connection is registered
	req.NoError(ws.WriteJSON(model.InboundEvent{Sender: "alice", Receiver: "bob", Message: "hi"}))
	req.NoError(ws.SetReadDeadline(time.Now().Add(3 * time.Second)))
	var ev model.BroadcastEvent
	req.NoError(ws.ReadJSON(&ev))
	req.Equal("hi", ev.Message)

	cancel()

	_, _, err = ws.ReadMessage()
	req.True(websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)

	select {
	case err := <-errc:
		req.NoError(err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}

// TestWarnInsecureDefaults 開発環境以外でのデフォルトシークレット警告
func TestWarnInsecureDefaults(t *testing.T) {
	req := require.New(t)
	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "info")

	warnInsecureDefaults(config.Config{Env: config.EnvDevelopment, JWTSecret: config.DefaultJWTSecret}, log)
	req.Zero(buf.Len())

	warnInsecureDefaults(config.Config{Env: "production", JWTSecret: "real"}, log)
	req.Zero(buf.Len())

	warnInsecureDefaults(config.Config{Env: "production", JWTSecret: config.DefaultJWTSecret}, log)
	req.Contains(buf.String(), `"msg":"config.insecure_default"`)
	req.Contains(buf.String(), `"key":"JWT_SECRET"`)
}
