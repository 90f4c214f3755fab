package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendText(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", srv.URL)

	require.NoError(t, tg.SendText(context.Background(), 7, "hello"))
	assert.Equal(t, float64(7), got["chat_id"])
	assert.Equal(t, "hello", got["text"])
}

func TestSendTextAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", srv.URL)

	err := tg.SendText(context.Background(), 7, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestSendKeyboard(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", srv.URL)

	rows := [][]Button{{{Text: "1", Data: "qty_1"}, {Text: "2", Data: "qty_2"}}}
	require.NoError(t, tg.SendKeyboard(context.Background(), 7, "How many?", rows))

	markup, ok := got["reply_markup"].(map[string]any)
	require.True(t, ok)
	keyboard, ok := markup["inline_keyboard"].([]any)
	require.True(t, ok)
	require.Len(t, keyboard, 1)

	row, ok := keyboard[0].([]any)
	require.True(t, ok)
	require.Len(t, row, 2)
	first := row[0].(map[string]any)
	assert.Equal(t, "1", first["text"])
	assert.Equal(t, "qty_1", first["callback_data"])
}

func TestSendPhoto(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendPhoto", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "7", r.FormValue("chat_id"))
		assert.Equal(t, "Ticket 1/1", r.FormValue("caption"))

		file, _, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		png, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2, 3}, png)

		w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	tg := NewTelegram("test-token", srv.URL)

	require.NoError(t, tg.SendPhoto(context.Background(), 7, []byte{1, 2, 3}, "Ticket 1/1"))
}
