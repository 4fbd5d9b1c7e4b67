package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// HTTPClient talks to the verification provider's REST API.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewHTTPClient builds a provider client with a bounded request timeout.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type apiResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        string `json:"id"`
	RequestID string `json:"request_id"`
}

// StartVerification requests delivery of a one-time code via sms or call.
func (c *HTTPClient) StartVerification(ctx context.Context, countryCode int, nationalNumber, channel string) error {
	payload := map[string]any{
		"country_code": countryCode,
		"phone":        nationalNumber,
		"via":          channel,
	}
	_, err := c.post(ctx, "start verification", "/protected/verifications/start", payload)
	return err
}

// CheckVerification validates a one-time code. A rejected code is reported by
// the provider with success=false and is not treated as a transport error.
func (c *HTTPClient) CheckVerification(ctx context.Context, countryCode int, nationalNumber, code string) (bool, error) {
	payload := map[string]any{
		"country_code": countryCode,
		"phone":        nationalNumber,
		"code":         code,
	}
	resp, err := c.postAllowRejected(ctx, "check verification", "/protected/verifications/check", payload)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

// RegisterUser creates a provider-side identity for the given contact details.
func (c *HTTPClient) RegisterUser(ctx context.Context, email string, countryCode int, nationalNumber string) (string, error) {
	payload := map[string]any{
		"email":        email,
		"country_code": countryCode,
		"phone":        nationalNumber,
	}
	resp, err := c.post(ctx, "register user", "/protected/users", payload)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &ProviderError{Op: "register user", Message: "provider returned no user id"}
	}
	return resp.ID, nil
}

// SendPushChallenge issues an approval request and returns its provider id.
func (c *HTTPClient) SendPushChallenge(ctx context.Context, challenge PushChallenge) (string, error) {
	payload := map[string]any{
		"user_id":           challenge.ProviderID,
		"message":           challenge.Message,
		"seconds_to_expire": strconv.Itoa(int(challenge.Expiry / time.Second)),
		"details":           challenge.Details,
	}
	resp, err := c.post(ctx, "send push challenge", "/protected/push/requests", payload)
	if err != nil {
		return "", err
	}
	if resp.RequestID == "" {
		return "", &ProviderError{Op: "send push challenge", Message: "provider returned no request id"}
	}
	return resp.RequestID, nil
}

// SendSMSChallenge delivers a fallback one-time password.
func (c *HTTPClient) SendSMSChallenge(ctx context.Context, providerID string) error {
	payload := map[string]any{
		"user_id": providerID,
		"force":   true,
	}
	_, err := c.post(ctx, "send sms challenge", "/protected/sms", payload)
	return err
}

// CheckSMSCode validates a fallback one-time password.
func (c *HTTPClient) CheckSMSCode(ctx context.Context, providerID, code string) (bool, error) {
	payload := map[string]any{
		"user_id": providerID,
		"code":    code,
	}
	resp, err := c.postAllowRejected(ctx, "check sms code", "/protected/sms/check", payload)
	if err != nil {
		return false, err
	}
	return resp.Success, nil
}

// post performs a provider call where success=false is a failure.
func (c *HTTPClient) post(ctx context.Context, op, path string, payload any) (apiResponse, error) {
	resp, err := c.postAllowRejected(ctx, op, path, payload)
	if err != nil {
		return apiResponse{}, err
	}
	if !resp.Success {
		msg := resp.Message
		if msg == "" {
			msg = "request rejected"
		}
		return apiResponse{}, &ProviderError{Op: op, Message: msg}
	}
	return resp, nil
}

// postAllowRejected performs a provider call and decodes the response,
// translating transport and HTTP-level failures into ProviderError while
// leaving application-level rejection (success=false on 2xx) to the caller.
func (c *HTTPClient) postAllowRejected(ctx context.Context, op, path string, payload any) (apiResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return apiResponse{}, fmt.Errorf("encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return apiResponse{}, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return apiResponse{}, &ProviderError{Op: op, Message: err.Error()}
	}
	defer httpResp.Body.Close()

	var decoded apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&decoded); err != nil {
		return apiResponse{}, &ProviderError{Op: op, Status: httpResp.StatusCode, Message: "invalid provider response"}
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		msg := decoded.Message
		if msg == "" {
			msg = http.StatusText(httpResp.StatusCode)
		}
		return apiResponse{}, &ProviderError{Op: op, Status: httpResp.StatusCode, Message: msg}
	}

	return decoded, nil
}
