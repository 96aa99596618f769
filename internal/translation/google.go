package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// defaultEndpoint is the free web-client translate endpoint.
const defaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// GoogleTranslator translates text via the public Google Translate endpoint.
type GoogleTranslator struct {
	endpoint string
	client   *http.Client
}

// NewGoogleTranslator creates a translator with a 10s request timeout.
func NewGoogleTranslator() *GoogleTranslator {
	return &GoogleTranslator{
		endpoint: defaultEndpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Translate translates Korean text into target. The endpoint uses "zh" for
// simplified Chinese, so "zh-cn" is mapped before the call.
func (g *GoogleTranslator) Translate(ctx context.Context, text, target string) (string, error) {
	googleCode := target
	if target == "zh-cn" {
		googleCode = "zh"
	}

	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", DefaultLanguage)
	params.Set("tl", googleCode)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate request: status %d", resp.StatusCode)
	}

	// Response shape: [[["translated","source",...],...],...]. Long inputs
	// are split into multiple segments; concatenate them.
	var data []interface{}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty response")
	}
	segments, ok := data[0].([]interface{})
	if !ok {
		return "", fmt.Errorf("unexpected response shape")
	}
	var b strings.Builder
	for _, seg := range segments {
		parts, ok := seg.([]interface{})
		if !ok || len(parts) == 0 {
			continue
		}
		if s, ok := parts[0].(string); ok {
			b.WriteString(s)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("no translation in response")
	}
	return b.String(), nil
}
