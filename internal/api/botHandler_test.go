package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"persona-chat/internal/models"
	"persona-chat/internal/repository"
	"persona-chat/internal/types"
)

func newTestServer(t *testing.T) (*httptest.Server, *repository.BotRegistry, *repository.ConversationLog) {
	t.Helper()

	bots := repository.NewBotRegistry()
	history := repository.NewConversationLog()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/create-bot", CreateBotHandler(bots, history))
	mux.HandleFunc("GET /api/bot/{botId}", GetBotHandler(bots))
	mux.HandleFunc("GET /api/bots", ListBotsHandler(bots))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, bots, history
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestCreateBotEndpoint(t *testing.T) {
	srv, _, history := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/create-bot", types.CreateBotRequest{
		Name:        "Nova",
		Description: "a cheerful assistant",
	})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var created types.CreateBotResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.True(t, created.Success)
	assert.NotEmpty(t, created.BotID)
	assert.Equal(t, "/bot/"+created.BotID, created.BotURL)
	require.NotNil(t, created.Bot)
	assert.Equal(t, "Nova", created.Bot.Name)
	assert.Equal(t, 0, created.Bot.MessageCount)
	assert.Equal(t, models.DefaultAvatar, created.Bot.ImageURL)

	// the bot starts with an allocated, empty conversation log
	assert.Empty(t, history.History(created.BotID))
}

func TestCreateBotValidationErrors(t *testing.T) {
	srv, bots, _ := newTestServer(t)

	cases := []struct {
		name    string
		payload types.CreateBotRequest
	}{
		{"missing name", types.CreateBotRequest{Description: "desc"}},
		{"missing description", types.CreateBotRequest{Name: "Nova"}},
		{"name too long", types.CreateBotRequest{Name: strings.Repeat("x", 51), Description: "desc"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/create-bot", tc.payload)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var errResp types.ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
			assert.NotEmpty(t, errResp.Error)
		})
	}

	assert.Empty(t, bots.List())
}

func TestCreateBotBadBody(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/create-bot", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetBotEndpoint(t *testing.T) {
	srv, bots, _ := newTestServer(t)

	bot, err := bots.Create("Nova", "a cheerful assistant", "")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/bot/" + bot.ID)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got models.Bot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, bot.ID, got.ID)
	assert.Equal(t, "Nova", got.Name)
}

func TestGetBotNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/bot/bot_missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var errResp types.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&errResp))
	assert.Equal(t, "Bot not found", errResp.Error)
}

func TestListBotsEndpoint(t *testing.T) {
	srv, bots, _ := newTestServer(t)

	_, err := bots.Create("First", "desc", "")
	require.NoError(t, err)
	second, err := bots.Create("Second", "desc", "")
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/bots")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list []models.Bot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest bot listed first")
}
