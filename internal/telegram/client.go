package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// API is the surface of the message gateway used by the export pipeline.
// history pages are returned oldest first; an empty page means exhaustion.
type API interface {
	ResolveChat(ctx context.Context, slug string) (*Chat, error)
	GetMessage(ctx context.Context, chatID, msgID int64) (*Message, error)
	History(ctx context.Context, chatID, topicID, offsetID int64, limit int) ([]Message, error)
	Download(ctx context.Context, fileID string) (io.ReadCloser, error)
}

const maxRetries = 5

// Client talks to an MTProto HTTP gateway. Authentication is api-id/api-hash
// headers; session establishment is the gateway's concern.
type Client struct {
	baseURL string
	apiID   string
	apiHash string
	phone   string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewClient(baseURL, apiID, apiHash, phone string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiID:   apiID,
		apiHash: apiHash,
		phone:   phone,
		client:  &http.Client{Timeout: 60 * time.Second},
		// Telegram tolerates roughly a handful of history calls per second
		// per session; pace well under that.
		limiter: rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		logger:  logger,
	}
}

type apiError struct {
	Status     int
	Code       string
	Message    string
	RetryAfter int // seconds, set on rate-limit responses
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error %d: %s — %s", e.Status, e.Code, e.Message)
}

func (e *apiError) transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

type errorBody struct {
	Error struct {
		Code       string `json:"code"`
		Message    string `json:"message"`
		RetryAfter int    `json:"retry_after,omitempty"`
	} `json:"error"`
}

func (c *Client) ResolveChat(ctx context.Context, slug string) (*Chat, error) {
	var chat Chat
	if err := c.getJSON(ctx, "/v1/chats/"+url.PathEscape(slug), nil, &chat); err != nil {
		return nil, fmt.Errorf("resolve chat %q: %w", slug, err)
	}
	return &chat, nil
}

func (c *Client) GetMessage(ctx context.Context, chatID, msgID int64) (*Message, error) {
	path := fmt.Sprintf("/v1/chats/%d/messages/%d", chatID, msgID)
	var msg Message
	if err := c.getJSON(ctx, path, nil, &msg); err != nil {
		return nil, fmt.Errorf("get message %d: %w", msgID, err)
	}
	return &msg, nil
}

// History fetches one page of messages, oldest first, starting after
// offsetID. A topicID above zero filters to that topic's thread.
func (c *Client) History(ctx context.Context, chatID, topicID, offsetID int64, limit int) ([]Message, error) {
	q := url.Values{}
	q.Set("offset_id", strconv.FormatInt(offsetID, 10))
	q.Set("limit", strconv.Itoa(limit))
	if topicID > 0 {
		q.Set("topic_id", strconv.FormatInt(topicID, 10))
	}

	var page struct {
		Messages []Message `json:"messages"`
	}
	path := fmt.Sprintf("/v1/chats/%d/messages", chatID)
	if err := c.getJSON(ctx, path, q, &page); err != nil {
		return nil, fmt.Errorf("history chat=%d offset=%d: %w", chatID, offsetID, err)
	}
	return page.Messages, nil
}

func (c *Client) Download(ctx context.Context, fileID string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/files/"+url.PathEscape(fileID), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setAuth(req)

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp.Body, nil
}

// getJSON performs a GET with bounded retries on rate-limit and server
// errors, honoring the retry_after hint when the gateway provides one.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		c.setAuth(req)

		resp, err := c.client.Do(req)
		if err != nil {
			return fmt.Errorf("api call: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			defer resp.Body.Close()
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		apiErr := readAPIError(resp)
		resp.Body.Close()

		ae, ok := apiErr.(*apiError)
		if !ok || !ae.transient() {
			return apiErr
		}
		lastErr = apiErr

		wait := time.Duration(attempt+1) * time.Second
		if ae.RetryAfter > 0 {
			wait = time.Duration(ae.RetryAfter)*time.Second + time.Second
		}
		c.logger.Warn("rate limited, backing off",
			"path", path,
			"status", ae.Status,
			"wait", wait,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return fmt.Errorf("retries exhausted: %w", lastErr)
}

func (c *Client) setAuth(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Id", c.apiID)
	req.Header.Set("X-Api-Hash", c.apiHash)
	if c.phone != "" {
		req.Header.Set("X-Phone", c.phone)
	}
}

func readAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("api error %d: read body: %w", resp.StatusCode, err)
	}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && eb.Error.Code != "" {
		return &apiError{
			Status:     resp.StatusCode,
			Code:       eb.Error.Code,
			Message:    eb.Error.Message,
			RetryAfter: eb.Error.RetryAfter,
		}
	}
	return &apiError{Status: resp.StatusCode, Code: "unknown", Message: string(body)}
}
