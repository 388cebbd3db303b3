// Package client is a Go SDK for the arbor generation service.
//
// Request/response calls go over HTTP. Connect opens a WebSocket on which
// several generation requests can be in flight at once; replies are
// matched to callers by request id.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/zeusync/arbor/internal/core/generator"
	"github.com/zeusync/arbor/internal/core/mesh"
	"github.com/zeusync/arbor/internal/core/observability/log"
	"github.com/zeusync/arbor/internal/core/preset"
	"github.com/zeusync/arbor/internal/server"
	"github.com/zeusync/arbor/pkg/encoding"
)

// Client talks to one arbor server.
type Client struct {
	config  Config
	baseURL *url.URL
	http    *http.Client
	logger  log.Log

	// WebSocket session
	conn    *websocket.Conn
	writeMu sync.Mutex
	pending map[string]chan envelope
	pendMu  sync.Mutex

	// Lifecycle
	connected int32 // atomic bool
	closed    int32 // atomic bool
	done      chan struct{}

	workerGroup sync.WaitGroup
}

// Config holds configuration for the client
type Config struct {
	// Base URL of the server, e.g. http://localhost:8080
	ServerURL      string
	ConnectTimeout time.Duration
	RequestTimeout time.Duration
	LogLevel       log.Level
}

// DefaultClientConfig returns default client configuration
func DefaultClientConfig() Config {
	return Config{
		ServerURL:      "http://localhost:8080",
		ConnectTimeout: 10 * time.Second,
		RequestTimeout: 30 * time.Second,
		LogLevel:       log.LevelInfo,
	}
}

// envelope mirrors server.Message with the result left undecoded.
type envelope struct {
	Type    string                  `json:"type"`
	ID      string                  `json:"id,omitempty"`
	Request *server.GenerateRequest `json:"request,omitempty"`
	Result  json.RawMessage         `json:"result,omitempty"`
	Error   string                  `json:"error,omitempty"`
}

// NewClient creates a client. No connection is made until a call needs one.
func NewClient(config Config) (*Client, error) {
	u, err := url.Parse(config.ServerURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: server url %q", ErrInvalidConfig, config.ServerURL)
	}

	c := &Client{
		config:  config,
		baseURL: u,
		http:    &http.Client{Timeout: config.RequestTimeout},
		logger:  log.New(config.LogLevel).With(log.String("component", "client")),
		pending: make(map[string]chan envelope),
		done:    make(chan struct{}),
	}
	c.logger.Debug("Client created", log.String("server", u.String()))
	return c, nil
}

// Presets lists the presets the server knows.
func (c *Client) Presets(ctx context.Context) ([]*preset.Preset, error) {
	var out []*preset.Preset
	return out, c.do(ctx, http.MethodGet, "/presets", nil, &out)
}

// Preset fetches one preset by name.
func (c *Client) Preset(ctx context.Context, name string) (*preset.Preset, error) {
	var out preset.Preset
	if err := c.do(ctx, http.MethodGet, "/presets/"+url.PathEscape(name), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Generate runs one generation over HTTP.
func (c *Client) Generate(ctx context.Context, req server.GenerateRequest) (*generator.Result, error) {
	var out generator.Result
	if err := c.do(ctx, http.MethodPost, "/generate", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forest generates req.Count trees from consecutive seeds over HTTP.
func (c *Client) Forest(ctx context.Context, req server.GenerateRequest) (*server.ForestResponse, error) {
	var out server.ForestResponse
	if err := c.do(ctx, http.MethodPost, "/forest", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Mesh downloads the binary mesh of a named preset grown from seed.
func (c *Client) Mesh(ctx context.Context, name string, seed uint64) (*mesh.Mesh, error) {
	path := "/presets/" + url.PathEscape(name) + "/mesh?format=bin&seed=" + strconv.FormatUint(seed, 10)
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return encoding.Decode[mesh.Mesh](data)
}

// Connect opens the WebSocket session used by Stream.
func (c *Client) Connect(ctx context.Context) error {
	if atomic.LoadInt32(&c.closed) == 1 {
		return ErrClientClosed
	}
	if !atomic.CompareAndSwapInt32(&c.connected, 0, 1) {
		return ErrAlreadyConnected
	}

	wsURL := *c.baseURL
	wsURL.Scheme = strings.Replace(wsURL.Scheme, "http", "ws", 1)
	wsURL.Path = strings.TrimSuffix(wsURL.Path, "/") + "/ws"

	dialCtx, cancel := context.WithTimeout(ctx, c.config.ConnectTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, wsURL.String(), nil)
	if err != nil {
		atomic.StoreInt32(&c.connected, 0)
		c.logger.Error("Failed to connect to server", log.String("url", wsURL.String()), log.Error(err))
		return err
	}
	c.conn = conn

	c.workerGroup.Add(1)
	go c.readLoop()

	c.logger.Info("Connected to server", log.String("url", wsURL.String()))
	return nil
}

// Stream sends a generation request over the WebSocket session and waits
// for its reply. It is safe to call from several goroutines.
func (c *Client) Stream(ctx context.Context, req server.GenerateRequest) (*generator.Result, error) {
	raw, err := c.roundTrip(ctx, "generate", req)
	if err != nil {
		return nil, err
	}
	var out generator.Result
	if err = json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return &out, nil
}

func (c *Client) roundTrip(ctx context.Context, kind string, req server.GenerateRequest) (json.RawMessage, error) {
	if atomic.LoadInt32(&c.connected) == 0 {
		return nil, ErrNotConnected
	}

	id := uuid.NewString()
	reply := make(chan envelope, 1)
	c.pendMu.Lock()
	c.pending[id] = reply
	c.pendMu.Unlock()
	defer func() {
		c.pendMu.Lock()
		delete(c.pending, id)
		c.pendMu.Unlock()
	}()

	c.writeMu.Lock()
	err := c.conn.WriteJSON(envelope{Type: kind, ID: id, Request: &req})
	c.writeMu.Unlock()
	if err != nil {
		return nil, err
	}

	select {
	case msg := <-reply:
		if msg.Type == "error" {
			return nil, &APIError{Message: msg.Error}
		}
		return msg.Result, nil
	case <-c.done:
		return nil, ErrNotConnected
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) readLoop() {
	defer c.workerGroup.Done()
	defer func() {
		if atomic.CompareAndSwapInt32(&c.connected, 1, 0) {
			close(c.done)
		}
	}()

	for {
		var msg envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.logger.Debug("Read loop stopped", log.Error(err))
			return
		}

		c.pendMu.Lock()
		ch, ok := c.pending[msg.ID]
		c.pendMu.Unlock()
		if !ok {
			c.logger.Warn("Reply for unknown request", log.String("id", msg.ID))
			continue
		}
		ch <- msg
	}
}

// Close ends the WebSocket session, if any. The client cannot reconnect
// afterwards, but HTTP calls keep working.
func (c *Client) Close() error {
	if !atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		return ErrClientClosed
	}
	if c.conn == nil {
		return nil
	}

	c.writeMu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.writeMu.Unlock()

	err := c.conn.Close()
	c.workerGroup.Wait()
	c.logger.Info("Disconnected from server")
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	return nil
}

// send performs the request and turns non-2xx answers into *APIError.
func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.baseURL.String(), "/")+path, r)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 == 2 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&payload) == nil {
		apiErr.Message = payload.Error
	}
	c.logger.Debug("Request failed", log.String("path", path), log.Int("status", resp.StatusCode))
	return nil, apiErr
}
