// Package twilio sends WhatsApp and SMS messages through the Twilio
// Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/loopmsg/messaging-gateway/internal/messaging/domain"
)

const defaultBaseURL = "https://api.twilio.com"

// restClient is the shared Messages API plumbing for the WhatsApp and SMS
// providers: form-encoded POSTs with basic auth, plus resource polling.
type restClient struct {
	logger     *slog.Logger
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
}

func newRESTClient(logger *slog.Logger, accountSID, authToken, baseURL string, httpClient *http.Client) *restClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &restClient{
		logger:     logger,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		accountSID: accountSID,
		authToken:  authToken,
	}
}

// messageResource is the subset of Twilio's message resource we consume.
type messageResource struct {
	Sid          string  `json:"sid"`
	Status       string  `json:"status"`
	ErrorCode    *int    `json:"error_code"`
	ErrorMessage *string `json:"error_message"`
}

// apiError is Twilio's error response body.
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (c *restClient) messagesURL() string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.baseURL, c.accountSID)
}

func (c *restClient) messageURL(sid string) string {
	return fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages/%s.json", c.baseURL, c.accountSID, url.PathEscape(sid))
}

// createMessage posts a message and normalizes the response into a
// DeliveryResult. All failures come back as failed results, never errors.
func (c *restClient) createMessage(ctx context.Context, form url.Values) domain.DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), strings.NewReader(form.Encode()))
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to build Twilio request: %v", err), "")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Twilio request failed", "error", err)
		return domain.Fail(fmt.Sprintf("Twilio request failed: %v", err), "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Fail(fmt.Sprintf("failed to read Twilio response: %v", err), "")
	}

	if resp.StatusCode >= 400 {
		return c.failFromErrorBody(ctx, resp.StatusCode, body)
	}

	var msg messageResource
	if err := json.Unmarshal(body, &msg); err != nil {
		c.logger.WarnContext(ctx, "failed to parse Twilio response", "error", err, "status_code", resp.StatusCode)
		return domain.Fail(fmt.Sprintf("failed to parse Twilio response: %v", err), "")
	}

	return c.resultFromResource(ctx, msg)
}

// fetchMessage polls a message resource. Nil means the message cannot be
// found or the API could not be reached; API-level failures other than
// not-found are reported as failed results.
func (c *restClient) fetchMessage(ctx context.Context, sid string) *domain.DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.messageURL(sid), nil)
	if err != nil {
		return nil
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to fetch Twilio message status", "error", err, "sid", sid)
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 400 {
		result := c.failFromErrorBody(ctx, resp.StatusCode, body)
		return &result
	}

	var msg messageResource
	if err := json.Unmarshal(body, &msg); err != nil {
		c.logger.ErrorContext(ctx, "failed to parse Twilio status response", "error", err, "sid", sid)
		return nil
	}

	result := c.resultFromResource(ctx, msg)
	return &result
}

func (c *restClient) resultFromResource(ctx context.Context, msg messageResource) domain.DeliveryResult {
	result := domain.DeliveryResult{
		Status:     mapStatus(ctx, c.logger, msg.Status),
		ExternalID: msg.Sid,
	}
	if msg.ErrorCode != nil {
		result.ErrorCode = strconv.Itoa(*msg.ErrorCode)
	}
	if msg.ErrorMessage != nil {
		result.ErrorMessage = *msg.ErrorMessage
	}
	return result
}

func (c *restClient) failFromErrorBody(ctx context.Context, statusCode int, body []byte) domain.DeliveryResult {
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		c.logger.ErrorContext(ctx, "Twilio API error", "code", apiErr.Code, "message", apiErr.Message)
		code := ""
		if apiErr.Code != 0 {
			code = strconv.Itoa(apiErr.Code)
		}
		return domain.Fail(apiErr.Message, code)
	}
	c.logger.ErrorContext(ctx, "Twilio API error", "status_code", statusCode)
	return domain.Fail(fmt.Sprintf("Twilio API returned status %d", statusCode), strconv.Itoa(statusCode))
}
