package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadflow/internal/models"
)

func eventsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/workspaces/ws-1/events"
}

func dialEvents(t *testing.T, ctx context.Context, srv *httptest.Server, role string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	opts := &websocket.DialOptions{}
	if role != "" {
		opts.HTTPHeader = http.Header{"Authorization": {"Bearer " + token(t, testWS, role)}}
	}
	return websocket.Dial(ctx, eventsURL(srv), opts)
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
		return ""
	}
}

func TestEventsStream(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := dialEvents(t, ctx, srv, "viewer")
	require.NoError(t, err)
	defer conn.CloseNow()

	assert.Equal(t, testWS, waitFor(t, ts.feed.subscribed))

	ts.feed.events <- models.Activity{
		ID: "a-1", WorkspaceID: testWS, LeadID: "L1", ActionType: models.ActionStageChanged,
		OldValue: "base", NewValue: "contatando",
	}

	var got models.Activity
	require.NoError(t, wsjson.Read(ctx, conn, &got))
	assert.Equal(t, "a-1", got.ID)
	assert.Equal(t, "L1", got.LeadID)
	assert.Equal(t, "contatando", got.NewValue)

	require.NoError(t, conn.Close(websocket.StatusNormalClosure, ""))
	assert.Equal(t, testWS, waitFor(t, ts.feed.released))
}

func TestEventsStreamRequiresAuth(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := dialEvents(t, ctx, srv, "")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestEventsStreamSubscribeFailure(t *testing.T) {
	ts := newTestServer(t)
	ts.feed.err = errors.New("redis down")
	srv := httptest.NewServer(ts.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := dialEvents(t, ctx, srv, "member")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestEventsStreamPlainGET(t *testing.T) {
	ts := newTestServer(t)
	rr := ts.do(t, http.MethodGet, "/workspaces/ws-1/events", "member", "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "BAD_REQUEST", decode(t, rr)["code"])
	select {
	case <-ts.feed.subscribed:
		t.Fatal("plain GET should not subscribe")
	default:
	}
}
