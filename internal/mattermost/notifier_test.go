package mattermost

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bal-board/internal/i18n"
)

func TestNotifier_PostsLocalizedNotice(t *testing.T) {
	require.NoError(t, i18n.Init("fr"))

	var got Post
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v4/posts", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"p1","channel_id":"ch1","message":""}`))
	}))
	defer srv.Close()

	n := NewNotifier(NewClient(srv.URL, "token"), "ch1")
	err := n.Notify(context.Background(), "notice.week_reset", map[string]any{"Week": "S12"})
	require.NoError(t, err)

	assert.Equal(t, "ch1", got.ChannelID)
	require.Len(t, got.Props.Attachments, 1)
	assert.Equal(t, "La semaine S12 a été réinitialisée.", got.Props.Attachments[0].Text)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "token").CreatePost(context.Background(), &Post{ChannelID: "ch1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api error 403")
}
