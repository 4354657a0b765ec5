package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrosense/agrosense/pkg/agrierr"
)

func chatServer(t *testing.T, handler http.HandlerFunc) *OpenAIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIClient(Config{BaseURL: srv.URL, Model: "test-model"})
}

func TestChatReturnsTrimmedContent(t *testing.T) {
	var gotPath string
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"test-model"`)
		assert.Contains(t, string(body), "you are a translator")

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  answer text \n"}}]}`)
	})

	out, err := client.Chat(context.Background(), "you are a translator", "hello")
	require.NoError(t, err)
	assert.Equal(t, "answer text", out)
	assert.Equal(t, "/v1/chat/completions", gotPath)
}

func TestChatClassifiesServerFailure(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.Chat(context.Background(), "", "hello")
	require.Error(t, err)
	assert.Equal(t, agrierr.KindLLMUnavailable, agrierr.KindOf(err))
}

func TestChatClassifiesCancellation(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Chat(ctx, "", "hello")
	require.Error(t, err)
	assert.Equal(t, agrierr.KindCancelled, agrierr.KindOf(err))
}

func TestChatEmptyChoices(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[]}`)
	})

	_, err := client.Chat(context.Background(), "", "hello")
	require.Error(t, err)
	assert.Equal(t, agrierr.KindLLMUnavailable, agrierr.KindOf(err))
}

func TestChatStreamDeliversTokens(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n")
		io.WriteString(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		io.WriteString(w, "data: [DONE]\n\n")
	})

	tokens, errs := client.ChatStream(context.Background(), "", "hi")

	var got string
	for tok := range tokens {
		got += tok
	}
	assert.Equal(t, "hello", got)
	assert.NoError(t, <-errs)
}

func TestChatStreamReportsFailure(t *testing.T) {
	client := chatServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	tokens, errs := client.ChatStream(context.Background(), "", "hi")
	for range tokens {
	}
	err := <-errs
	require.Error(t, err)
	assert.Equal(t, agrierr.KindLLMUnavailable, agrierr.KindOf(err))
}
