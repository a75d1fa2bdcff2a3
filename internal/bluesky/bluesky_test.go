package bluesky

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyqueue/skyqueue/internal/config"
)

const (
	testAccessJwt = "test-access-jwt"
	testDid       = "did:plc:abcdef123456"
)

// testClient builds a client pointed at the given fake PDS.
func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()

	client, err := New(&config.Bluesky{
		Host:        srv.URL,
		Identifier:  "queue.example.com",
		AppPassword: "app-password",
	})
	require.NoError(t, err)

	return client
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestNew(t *testing.T) {
	testCases := []struct {
		name          string
		config        *config.Bluesky
		expectedError error
	}{
		{
			name:          "nil config",
			config:        nil,
			expectedError: ErrConfigNil,
		},
		{
			name:          "empty host",
			config:        &config.Bluesky{Identifier: "a", AppPassword: "b"},
			expectedError: ErrHostEmpty,
		},
		{
			name:          "missing identifier",
			config:        &config.Bluesky{Host: "https://bsky.social", AppPassword: "b"},
			expectedError: ErrCredentialsEmpty,
		},
		{
			name:          "missing app password",
			config:        &config.Bluesky{Host: "https://bsky.social", Identifier: "a"},
			expectedError: ErrCredentialsEmpty,
		},
		{
			name:   "valid config",
			config: &config.Bluesky{Host: "https://bsky.social", Identifier: "a", AppPassword: "b"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client, err := New(tc.config)

			if tc.expectedError != nil {
				require.Error(t, err)
				require.ErrorIs(t, err, tc.expectedError)
				assert.Nil(t, client)
			} else {
				require.NoError(t, err)
				require.NotNil(t, client)
			}
		})
	}
}

func TestNewTrimsTrailingSlash(t *testing.T) {
	client, err := New(&config.Bluesky{
		Host:        "https://bsky.social/",
		Identifier:  "a",
		AppPassword: "b",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://bsky.social", client.host)
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, createSessionPath, r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req createSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "queue.example.com", req.Identifier)
		assert.Equal(t, "app-password", req.Password)

		writeJSON(t, w, http.StatusOK, Session{
			AccessJwt: testAccessJwt,
			Did:       testDid,
			Handle:    "queue.example.com",
		})
	}))
	defer srv.Close()

	session, err := testClient(t, srv).CreateSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testAccessJwt, session.AccessJwt)
	assert.Equal(t, testDid, session.Did)
	assert.Equal(t, "queue.example.com", session.Handle)
}

func TestCreateSessionRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, xrpcError{
			Code:    "AuthenticationRequired",
			Message: "Invalid identifier or password",
		})
	}))
	defer srv.Close()

	_, err := testClient(t, srv).CreateSession(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AuthenticationRequired")
	assert.Contains(t, err.Error(), "Invalid identifier or password")
}

func TestCreateSessionMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, Session{Did: testDid})
	}))
	defer srv.Close()

	_, err := testClient(t, srv).CreateSession(context.Background())
	require.ErrorIs(t, err, ErrMissingToken)
}

func TestPublish(t *testing.T) {
	var calls []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case createSessionPath:
			calls = append(calls, "createSession")
			writeJSON(t, w, http.StatusOK, Session{AccessJwt: testAccessJwt, Did: testDid})

		case createRecordPath:
			calls = append(calls, "createRecord")
			require.Equal(t, "Bearer "+testAccessJwt, r.Header.Get("Authorization"))

			var req createRecordRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, testDid, req.Repo)
			assert.Equal(t, FeedPostCollection, req.Collection)
			assert.Equal(t, FeedPostCollection, req.Record.Type)
			assert.Equal(t, "Good morning", req.Record.Text)

			// createdAt is RFC3339 in UTC
			createdAt, err := time.Parse(time.RFC3339, req.Record.CreatedAt)
			require.NoError(t, err)
			assert.True(t, strings.HasSuffix(req.Record.CreatedAt, "Z"))
			assert.WithinDuration(t, time.Now().UTC(), createdAt, time.Minute)

			writeJSON(t, w, http.StatusOK, Receipt{
				URI: "at://" + testDid + "/app.bsky.feed.post/3kabc",
				Cid: "bafyreib2rxk3rh6kzwq",
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	receipt, err := testClient(t, srv).Publish(context.Background(), "Good morning")
	require.NoError(t, err)
	assert.Equal(t, "at://"+testDid+"/app.bsky.feed.post/3kabc", receipt.URI)
	assert.NotEmpty(t, receipt.Cid)

	// Session first, record second
	assert.Equal(t, []string{"createSession", "createRecord"}, calls)
}

func TestPublishAuthFailureSkipsRecord(t *testing.T) {
	recordCalls := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case createSessionPath:
			writeJSON(t, w, http.StatusUnauthorized, xrpcError{
				Code:    "AuthenticationRequired",
				Message: "Invalid identifier or password",
			})

		case createRecordPath:
			recordCalls++
			w.WriteHeader(http.StatusOK)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Publish(context.Background(), "Good morning")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session create failed")

	// The record call is never attempted without a session
	assert.Equal(t, 0, recordCalls)
}

func TestPublishRecordRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case createSessionPath:
			writeJSON(t, w, http.StatusOK, Session{AccessJwt: testAccessJwt, Did: testDid})

		case createRecordPath:
			writeJSON(t, w, http.StatusBadRequest, xrpcError{
				Code:    "InvalidRequest",
				Message: "record must not be empty",
			})

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, err := testClient(t, srv).Publish(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record create failed")
	assert.Contains(t, err.Error(), "InvalidRequest")
}

func TestTest(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		expectError bool
	}{
		{name: "server answers", status: http.StatusOK, expectError: false},
		{name: "server broken", status: http.StatusInternalServerError, expectError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(t, describeServerPath, r.URL.Path)
				require.Equal(t, http.MethodGet, r.Method)

				if tc.status == http.StatusOK {
					writeJSON(t, w, tc.status, map[string]any{
						"availableUserDomains": []string{".bsky.social"},
					})
					return
				}

				w.WriteHeader(tc.status)
			}))
			defer srv.Close()

			err := testClient(t, srv).Test(context.Background())

			if tc.expectError {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
