package bluesky

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/skyqueue/skyqueue/internal/config"
)

const (
	defaultTimeout = 30 * time.Second

	// FeedPostCollection is the record collection that feed posts live in.
	// The record's $type carries the same value.
	FeedPostCollection = "app.bsky.feed.post"

	createSessionPath  = "/xrpc/com.atproto.server.createSession"
	createRecordPath   = "/xrpc/com.atproto.repo.createRecord"
	describeServerPath = "/xrpc/com.atproto.server.describeServer"

	// maxErrorBody caps how much of an error response is read back.
	maxErrorBody = 4 << 10
)

// Client talks to a Bluesky PDS over XRPC.
type Client struct {
	host        string
	identifier  string
	appPassword string
	httpClient  *http.Client
}

// Session holds the access grant returned by createSession.
type Session struct {
	AccessJwt string `json:"accessJwt"`
	Did       string `json:"did"`
	Handle    string `json:"handle"`
}

// Receipt identifies the record written by a successful publish.
type Receipt struct {
	URI string `json:"uri"`
	Cid string `json:"cid"`
}

type createSessionRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type feedPost struct {
	Type      string `json:"$type"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type createRecordRequest struct {
	Repo       string   `json:"repo"`
	Collection string   `json:"collection"`
	Record     feedPost `json:"record"`
}

// xrpcError is the error envelope the XRPC endpoints return on non-2xx.
type xrpcError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
}

// New creates a Bluesky client from the publisher settings.
func New(cfg *config.Bluesky) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	if cfg.Host == "" {
		return nil, ErrHostEmpty
	}

	if cfg.Identifier == "" || cfg.AppPassword == "" {
		return nil, ErrCredentialsEmpty
	}

	return &Client{
		host:        strings.TrimRight(cfg.Host, "/"),
		identifier:  cfg.Identifier,
		appPassword: cfg.AppPassword,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}, nil
}

// CreateSession authenticates against the PDS and returns the granted session.
func (c *Client) CreateSession(ctx context.Context) (*Session, error) {
	body := createSessionRequest{
		Identifier: c.identifier,
		Password:   c.appPassword,
	}

	session := &Session{}
	if err := c.post(ctx, createSessionPath, "", body, session); err != nil {
		return nil, err
	}

	if session.AccessJwt == "" {
		return nil, ErrMissingToken
	}

	return session, nil
}

// Publish runs the two call handshake: create a session, then write the text
// as a feed post record under the authenticated repository. Nothing is
// written when the session call fails.
func (c *Client) Publish(ctx context.Context, text string) (*Receipt, error) {
	session, err := c.CreateSession(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "session create failed")
	}

	record := createRecordRequest{
		Repo:       session.Did,
		Collection: FeedPostCollection,
		Record: feedPost{
			Type:      FeedPostCollection,
			Text:      text,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
	}

	receipt := &Receipt{}
	if err := c.post(ctx, createRecordPath, session.AccessJwt, record, receipt); err != nil {
		return nil, errors.Wrap(err, "record create failed")
	}

	return receipt, nil
}

// Test checks connectivity by asking the PDS to describe itself. The endpoint
// needs no credentials, so a pass only proves the host answers XRPC.
func (c *Client) Test(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+describeServerPath, nil)
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}

	log.Info().Str("host", c.host).Msg("Bluesky API connection test successful")

	return nil
}

func (c *Client) post(ctx context.Context, path, token string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "build request")
	}

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}

	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var xe xrpcError
	if err := json.Unmarshal(body, &xe); err == nil && xe.Code != "" {
		return errors.Errorf("%s: %s (status %d)", xe.Code, xe.Message, resp.StatusCode)
	}

	return errors.Errorf("unexpected status %d", resp.StatusCode)
}
