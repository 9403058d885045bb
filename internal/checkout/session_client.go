package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/indstore/storefront/pkg/errors"
	"github.com/indstore/storefront/pkg/httpclient"
	"github.com/indstore/storefront/pkg/logger"
	"github.com/indstore/storefront/pkg/types"
)

const (
	sessionPath         = "/payments/create-checkout-session"
	idempotencyHeader   = "Idempotency-Key"
	maxResponseBytes    = 1 << 20
	fallbackFailureText = "checkout session could not be created"
)

// Doer is satisfied by *httpclient.Client and *http.Client.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// SessionClient calls the checkout session endpoint over HTTP.
type SessionClient struct {
	endpoint string
	http     Doer
	logg     *logger.Logger
}

// sessionReply covers both the success and the failure payload.
type sessionReply struct {
	URL   string `json:"url"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

func NewSessionClient(baseURL string, doer Doer, logg *logger.Logger) (*SessionClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("checkout base url is required")
	}
	if doer == nil {
		return nil, fmt.Errorf("http client is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &SessionClient{endpoint: baseURL + sessionPath, http: doer, logg: logg}, nil
}

// CreateSession posts the cart lines and returns the provider redirect URL.
// Both the status code and the payload decide the outcome.
func (c *SessionClient) CreateSession(ctx context.Context, req SessionRequest) (string, error) {
	body, err := json.Marshal(types.CheckoutSessionRequest{Items: req.Lines})
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode checkout request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build checkout request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if req.IdempotencyKey != "" {
		httpReq.Header.Set(idempotencyHeader, req.IdempotencyKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout request cancelled")
		case httpclient.IsOpen(err):
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout service unavailable")
		default:
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout request failed")
		}
	}
	defer resp.Body.Close()

	var reply sessionReply
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, readErr, "read checkout response")
	}
	decodeErr := json.Unmarshal(raw, &reply)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, decodeErr, "decode checkout response")
		}
		if reply.URL != "" {
			return reply.URL, nil
		}
		// 2xx without a url is treated as a provider failure.
		return "", pkgerrors.New(pkgerrors.CodeProvider, nonEmpty(reply.Error, fallbackFailureText))
	}

	c.logg.Debug(c.logg.WithFields(ctx, map[string]any{"status": resp.StatusCode, "code": reply.Code}), "checkout session rejected")
	return "", failureFromReply(resp.StatusCode, reply)
}

func failureFromReply(status int, reply sessionReply) error {
	code := pkgerrors.Code(reply.Code)
	if reply.Code == "" || pkgerrors.MetadataFor(code).HTTPStatus != status {
		code = codeForStatus(status)
	}
	msg := nonEmpty(reply.Error, http.StatusText(status))
	return pkgerrors.New(code, msg).WithDetails(map[string]any{"status": status})
}

func codeForStatus(status int) pkgerrors.Code {
	switch {
	case status == http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case status == http.StatusConflict:
		return pkgerrors.CodeIdempotency
	case status >= 400 && status < 500:
		return pkgerrors.CodeValidation
	case status == http.StatusServiceUnavailable:
		return pkgerrors.CodeDependency
	default:
		return pkgerrors.CodeProvider
	}
}

func nonEmpty(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
