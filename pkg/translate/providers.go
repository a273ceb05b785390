package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// Google calls the public translate_a/single endpoint
type Google struct {
	endpoint   string
	httpClient *http.Client
}

// NewGoogle creates the google provider
func NewGoogle(endpoint string, httpClient *http.Client) *Google {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Google{endpoint: endpoint, httpClient: httpClient}
}

// Translate implements Provider
func (g *Google) Translate(ctx context.Context, text, source, target string) (string, error) {
	q := url.Values{}
	q.Set("client", "gtx")
	q.Set("sl", source)
	q.Set("tl", target)
	q.Set("dt", "t")
	q.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "labelkit/1.0")

	data, err := send(g.httpClient, req)
	if err != nil {
		return "", err
	}
	return parseGoogle(data)
}

// parseGoogle joins the translated segments of a [[["seg","orig",...],...],...] reply
func parseGoogle(data []byte) (string, error) {
	var top []json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil || len(top) == 0 {
		return "", fmt.Errorf("unexpected google response")
	}
	var segments [][]json.RawMessage
	if err := json.Unmarshal(top[0], &segments); err != nil {
		return "", fmt.Errorf("unexpected google response: %w", err)
	}

	var sb strings.Builder
	for _, seg := range segments {
		if len(seg) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(seg[0], &s); err != nil {
			continue
		}
		sb.WriteString(s)
	}
	if sb.Len() == 0 {
		return "", errors.New("google returned no translation")
	}
	return sb.String(), nil
}

// DeepL calls the DeepL v2 API
type DeepL struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewDeepL creates the deepl provider
func NewDeepL(endpoint, apiKey string, httpClient *http.Client) *DeepL {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &DeepL{endpoint: endpoint, apiKey: apiKey, httpClient: httpClient}
}

// Translate implements Provider
func (d *DeepL) Translate(ctx context.Context, text, source, target string) (string, error) {
	if d.apiKey == "" {
		return "", errors.New("deepl API key is not configured")
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("target_lang", deeplCode(target))
	if source != Auto && source != "" {
		form.Set("source_lang", deeplCode(Base(source)))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)

	data, err := send(d.httpClient, req)
	if err != nil {
		return "", err
	}

	var resp struct {
		Translations []struct {
			Text string `json:"text"`
		} `json:"translations"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("failed to decode deepl response: %w", err)
	}
	if len(resp.Translations) == 0 {
		return "", errors.New("deepl returned no translation")
	}
	return resp.Translations[0].Text, nil
}

// deeplCode maps BCP 47 codes to DeepL's; Chinese targets are plain ZH
func deeplCode(code string) string {
	if Base(code) == "zh" {
		return "ZH"
	}
	return strings.ToUpper(code)
}

// Upstream forwards one named service to a remote /translate API
type Upstream struct {
	client  *Client
	service string
}

// NewUpstream binds a remote API client to a service name
func NewUpstream(client *Client, service string) *Upstream {
	return &Upstream{client: client, service: service}
}

// Translate implements Provider
func (u *Upstream) Translate(ctx context.Context, text, source, target string) (string, error) {
	return u.client.Translate(ctx, text, source, target, u.service)
}

func send(c *http.Client, req *http.Request) ([]byte, error) {
	resp, err := c.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(string(data), 200))
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
