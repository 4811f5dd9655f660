// Package ocr implements the visual OCR client. Every request is signed
// with the canonical-request HMAC scheme before it leaves the process.
package ocr

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.trai.ch/docmill/internal/adapters/signer"
	"go.trai.ch/docmill/internal/core/domain"
	"go.trai.ch/docmill/internal/core/ports"
	"go.trai.ch/zerr"
)

// okCode is the service's success code in the response envelope.
const okCode = 10000

var _ ports.OCRService = (*Client)(nil)

// Client implements ports.OCRService against the visual OCR endpoint.
type Client struct {
	cfg    domain.OCRConfig
	creds  signer.Credentials
	httpc  *http.Client
	logger ports.Logger
	now    func() time.Time
}

// NewClient creates an OCR client. It fails fast when the access key pair
// is missing so the orchestrator can skip the stage with a configuration
// error instead of failing every unit.
func NewClient(cfg domain.OCRConfig, creds domain.Credentials, logger ports.Logger) (*Client, error) {
	if creds.AccessKey == "" || creds.SecretKey == "" {
		return nil, domain.ErrMissingCredentials
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		cfg: cfg,
		creds: signer.Credentials{
			AccessKey:    creds.AccessKey,
			SecretKey:    creds.SecretKey,
			SessionToken: creds.SessionToken,
		},
		httpc:  &http.Client{Timeout: timeout},
		logger: logger,
		now:    time.Now,
	}, nil
}

// Recognize sends one image and returns the recognized lines joined by
// newlines. Transport failures and non-success service codes are returned
// as errors; the scheduler treats them as retryable.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	reqID := uuid.New().String()
	start := c.now()

	body := c.requestBody(image)
	query := map[string]string{"Action": c.cfg.Action, "Version": c.cfg.Version}
	headers := signer.Sign(signer.Request{
		Method: http.MethodPost,
		Path:   "/",
		Query:  query,
		Headers: map[string]string{
			"Host":         c.cfg.Host,
			"Content-Type": "application/x-www-form-urlencoded",
			"Accept":       "application/json",
		},
		Body: []byte(body),
	}, c.creds, c.cfg.Region, c.cfg.Service, c.now())

	endpoint := "https://" + c.cfg.Host + "/?" + signer.CanonicalQuery(query)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body))
	if err != nil {
		return "", zerr.Wrap(err, "failed to build OCR request")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.logger.Warn("ocr request failed", "req_id", reqID, "error", err)
		return "", zerr.Wrap(err, "OCR request failed")
	}
	defer resp.Body.Close() //nolint:errcheck // Best effort close in defer

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", zerr.Wrap(err, "failed to read OCR response")
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("ocr request rejected",
			"req_id", reqID, "status", resp.StatusCode, "elapsed_ms", time.Since(start).Milliseconds())
		return "", zerr.With(zerr.New("OCR request rejected"), "status", resp.StatusCode)
	}

	text, err := decodeResponse(data)
	if err != nil {
		return "", err
	}
	c.logger.Info("ocr request succeeded",
		"req_id", reqID, "text_len", len(text), "elapsed_ms", time.Since(start).Milliseconds())
	return text, nil
}

// requestBody builds the form-encoded body: the base64 image plus the
// optional recognition knobs that are set.
func (c *Client) requestBody(image []byte) string {
	form := url.Values{}
	form.Set("image_base64", base64.StdEncoding.EncodeToString(image))
	for key, value := range map[string]string{
		"mode":              c.cfg.Mode,
		"approximate_pixel": c.cfg.ApproximatePixel,
		"filter_thresh":     c.cfg.FilterThresh,
		"half_to_full":      c.cfg.HalfToFull,
	} {
		if value != "" {
			form.Set(key, value)
		}
	}
	return form.Encode()
}

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		LineTexts []string `json:"line_texts"`
	} `json:"data"`
}

func decodeResponse(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", zerr.Wrap(err, "failed to decode OCR response")
	}
	if env.Code != okCode {
		return "", zerr.With(zerr.With(zerr.New("OCR service error"), "code", env.Code), "message", env.Message)
	}
	lines := make([]string, 0, len(env.Data.LineTexts))
	for _, line := range env.Data.LineTexts {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}
