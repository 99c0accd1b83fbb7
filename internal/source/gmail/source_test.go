package gmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"mailsync/internal/domain"
)

type fakeGmail struct {
	mu       sync.Mutex
	queries  []string
	messages map[string]map[string]any
	pages    [][]string
	failures map[string]int
	listCode int
	gets     atomic.Int32
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		if f.listCode != 0 {
			writeAPIError(w, f.listCode)
			return
		}

		f.mu.Lock()
		f.queries = append(f.queries, r.URL.Query().Get("q"))
		f.mu.Unlock()

		page := 0
		if token := r.URL.Query().Get("pageToken"); token != "" {
			page = 1
		}
		refs := make([]map[string]string, 0)
		for _, id := range f.pages[page] {
			refs = append(refs, map[string]string{"id": id})
		}
		resp := map[string]any{"messages": refs}
		if page+1 < len(f.pages) {
			resp["nextPageToken"] = "next"
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/gmail/v1/users/me/messages/", func(w http.ResponseWriter, r *http.Request) {
		f.gets.Add(1)
		id := strings.TrimPrefix(r.URL.Path, "/gmail/v1/users/me/messages/")

		f.mu.Lock()
		if f.failures[id] > 0 {
			f.failures[id]--
			f.mu.Unlock()
			writeAPIError(w, http.StatusServiceUnavailable)
			return
		}
		f.mu.Unlock()

		msg, ok := f.messages[id]
		if !ok {
			writeAPIError(w, http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(msg)
	})
	return mux
}

func writeAPIError(w http.ResponseWriter, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{"code": code, "message": http.StatusText(code)},
	})
}

func apiMessage(id, threadID, from string, sentAt time.Time) map[string]any {
	return map[string]any{
		"id":           id,
		"threadId":     threadID,
		"internalDate": strconv.FormatInt(sentAt.UnixMilli(), 10),
		"payload": map[string]any{
			"mimeType": "text/plain",
			"headers": []map[string]string{
				{"name": "From", "value": from},
				{"name": "To", "value": "talent@curacel.co"},
				{"name": "Subject", "value": "Hello " + id},
			},
			"body": map[string]any{"data": encode("body of " + id)},
		},
	}
}

func newTestSource(t *testing.T, fake *fakeGmail) *Source {
	t.Helper()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)

	src, err := NewWithOptions(context.Background(), Config{
		User:             "me",
		PageSize:         2,
		FetchConcurrency: 2,
		MaxAttempts:      3,
		InitialBackoff:   time.Millisecond,
		MaxBackoff:       5 * time.Millisecond,
	}, testLogger(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)
	return src
}

func TestSource_FetchMessages(t *testing.T) {
	fake := &fakeGmail{
		pages: [][]string{{"m-3", "m-1"}, {"m-gone", "m-2"}},
		messages: map[string]map[string]any{
			"m-1": apiMessage("m-1", "t-1", "ada@example.com", time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)),
			"m-2": apiMessage("m-2", "t-1", "talent@curacel.co", time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)),
			"m-3": apiMessage("m-3", "t-2", "ada@example.com", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		},
		failures: map[string]int{"m-2": 1},
	}
	src := newTestSource(t, fake)

	messages, err := src.FetchMessages(context.Background(), domain.FetchQuery{
		Counterpart: "ada@example.com",
		After:       time.Unix(1700000000, 0),
		Before:      time.Unix(1710000000, 0),
	})
	require.NoError(t, err)

	require.Len(t, messages, 3)
	assert.Equal(t, "m-1", messages[0].ProviderMessageID)
	assert.Equal(t, "m-2", messages[1].ProviderMessageID)
	assert.Equal(t, "m-3", messages[2].ProviderMessageID)
	assert.Equal(t, "body of m-2", messages[1].TextBody)
	assert.Equal(t, "t-1", messages[1].ProviderThreadID)

	require.Len(t, fake.queries, 2)
	assert.Contains(t, fake.queries[0], "from:ada@example.com OR to:ada@example.com")
	assert.Contains(t, fake.queries[0], "after:1700000000")
	// m-2 failed once and was retried
	assert.GreaterOrEqual(t, fake.gets.Load(), int32(5))
}

func TestSource_FetchMessages_Unauthorized(t *testing.T) {
	fake := &fakeGmail{listCode: http.StatusUnauthorized}
	src := newTestSource(t, fake)

	_, err := src.FetchMessages(context.Background(), domain.FetchQuery{Counterpart: "ada@example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSource_FetchMessages_UnavailableAfterRetries(t *testing.T) {
	fake := &fakeGmail{
		pages:    [][]string{{"m-1"}},
		messages: map[string]map[string]any{"m-1": apiMessage("m-1", "t-1", "ada@example.com", time.Now())},
		failures: map[string]int{"m-1": 10},
	}
	src := newTestSource(t, fake)

	_, err := src.FetchMessages(context.Background(), domain.FetchQuery{Counterpart: "ada@example.com"})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.GreaterOrEqual(t, fake.gets.Load(), int32(3))
}

func TestSource_CalculateBackoff(t *testing.T) {
	src := &Source{initialBackoff: time.Second, maxBackoff: 5 * time.Second}

	assert.Equal(t, time.Second, src.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, src.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, src.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, src.calculateBackoff(4))
}
