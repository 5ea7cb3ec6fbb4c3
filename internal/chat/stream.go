package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/Devhypertech/aigroupgepanda/internal/apperr"
	"github.com/Devhypertech/aigroupgepanda/utils"

	"go.uber.org/zap"
)

const (
	DefaultStreamURL = "https://chat.stream-io-api.com"

	defaultRequestTimeout = 15 * time.Second
	service               = "stream"
)

type StreamConfig struct {
	APIKey    string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

// StreamClient talks to the Stream Chat server-side REST API.
type StreamClient struct {
	cfg  StreamConfig
	http *http.Client
	log  *zap.SugaredLogger
}

func NewStreamClient(cfg StreamConfig, log *zap.SugaredLogger) (*StreamClient, error) {
	var missing []string
	if cfg.APIKey == "" {
		missing = append(missing, "STREAM_API_KEY")
	}
	if cfg.APISecret == "" {
		missing = append(missing, "STREAM_API_SECRET")
	}
	if len(missing) > 0 {
		return nil, &apperr.ConfigurationError{Missing: missing}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultStreamURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultRequestTimeout
	}
	return &StreamClient{cfg: cfg, http: &http.Client{}, log: log}, nil
}

func (s *StreamClient) UpsertUser(ctx context.Context, user User) error {
	body := map[string]interface{}{
		"users": map[string]User{user.ID: user},
	}
	return s.do(ctx, http.MethodPost, "/users", body, nil)
}

func (s *StreamClient) CreateToken(userID string) (string, error) {
	return utils.SignUserToken(s.cfg.APISecret, userID)
}

// CreateChannel is idempotent on the provider side: an existing channel is returned as is.
func (s *StreamClient) CreateChannel(ctx context.Context, ch Channel, createdBy string) error {
	body := map[string]interface{}{
		"data":  map[string]interface{}{"created_by_id": createdBy},
		"state": true,
	}
	return s.do(ctx, http.MethodPost, channelPath(ch)+"/query", body, nil)
}

func (s *StreamClient) WatchChannel(ctx context.Context, ch Channel) error {
	body := map[string]interface{}{"state": true}
	return s.do(ctx, http.MethodPost, channelPath(ch)+"/query", body, nil)
}

func (s *StreamClient) AddMembers(ctx context.Context, ch Channel, userIDs ...string) error {
	body := map[string]interface{}{"add_members": userIDs}
	return s.do(ctx, http.MethodPost, channelPath(ch), body, nil)
}

func (s *StreamClient) QueryMessages(ctx context.Context, ch Channel, limit int) ([]Message, error) {
	body := map[string]interface{}{
		"state":    true,
		"messages": map[string]int{"limit": limit},
	}
	var resp struct {
		Messages []Message `json:"messages"`
	}
	if err := s.do(ctx, http.MethodPost, channelPath(ch)+"/query", body, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

func (s *StreamClient) SendMessage(ctx context.Context, ch Channel, text, userID string) (*Message, error) {
	body := map[string]interface{}{
		"message": map[string]string{"text": text, "user_id": userID},
	}
	var resp struct {
		Message Message `json:"message"`
	}
	if err := s.do(ctx, http.MethodPost, channelPath(ch)+"/message", body, &resp); err != nil {
		return nil, err
	}
	return &resp.Message, nil
}

func channelPath(ch Channel) string {
	return "/channels/" + url.PathEscape(ch.Type) + "/" + url.PathEscape(ch.ID)
}

// do applies the client timeout unless ctx already carries a shorter deadline.
func (s *StreamClient) do(ctx context.Context, method, path string, in, out interface{}) error {
	timeout := s.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	endpoint := s.cfg.BaseURL + path + "?api_key=" + url.QueryEscape(s.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	serverToken, err := utils.SignServerToken(s.cfg.APISecret)
	if err != nil {
		return fmt.Errorf("sign server token: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", serverToken)
	req.Header.Set("Stream-Auth-Type", "jwt")

	resp, err := s.http.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &apperr.UpstreamTimeout{Service: service, After: timeout}
		}
		return &apperr.TransportError{Service: service, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &apperr.TransportError{Service: service, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		s.log.Warnw("stream api error", "path", path, "status", resp.StatusCode, "message", apiErr.Message)
		body := apiErr.Message
		if body == "" {
			body = string(respBody)
		}
		return &apperr.UpstreamError{Service: service, StatusCode: resp.StatusCode, Body: body}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return &apperr.TransportError{Service: service, Err: fmt.Errorf("decode %s response: %w", path, err)}
	}
	return nil
}
