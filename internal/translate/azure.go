package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erendikmenn/erenailab-blog/internal/config"
)

// Limits of a single Translator request.
const (
	maxBatchItems = 100
	maxBatchChars = 40000
)

// AzureClient calls the Translator v3 REST API.
type AzureClient struct {
	endpoint string
	key      string
	region   string
	http     *http.Client
}

func NewAzureClient(cfg config.TranslatorConfig) *AzureClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &AzureClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		key:      cfg.Key,
		region:   cfg.Region,
		http:     &http.Client{Timeout: timeout},
	}
}

type azureText struct {
	Text string `json:"text"`
}

type azureResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Translate sends texts in as few requests as the service limits allow.
func (c *AzureClient) Translate(ctx context.Context, texts []string, to, from string) ([]string, error) {
	if len(texts) == 0 || to == from {
		return texts, nil
	}

	out := make([]string, 0, len(texts))
	for _, batch := range batches(texts) {
		translated, err := c.translateBatch(ctx, batch, to, from)
		if err != nil {
			return nil, err
		}
		out = append(out, translated...)
	}
	return out, nil
}

func batches(texts []string) [][]string {
	var (
		out   [][]string
		start int
		chars int
	)
	for i, t := range texts {
		n := len([]rune(t))
		if i > start && (i-start == maxBatchItems || chars+n > maxBatchChars) {
			out = append(out, texts[start:i])
			start, chars = i, 0
		}
		chars += n
	}
	return append(out, texts[start:])
}

func (c *AzureClient) translateBatch(ctx context.Context, texts []string, to, from string) ([]string, error) {
	body := make([]azureText, len(texts))
	for i, t := range texts {
		body[i] = azureText{Text: t}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode translation request: %w", err)
	}

	q := url.Values{}
	q.Set("api-version", "3.0")
	q.Set("to", to)
	if from != "" {
		q.Set("from", from)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/translate?"+q.Encode(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create translation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	if c.region != "" {
		req.Header.Set("Ocp-Apim-Subscription-Region", c.region)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call translator: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("translator returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var results []azureResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode translation response: %w", err)
	}
	if len(results) != len(texts) {
		return nil, fmt.Errorf("translator returned %d results for %d texts", len(results), len(texts))
	}

	out := make([]string, len(results))
	for i, r := range results {
		if len(r.Translations) == 0 {
			return nil, fmt.Errorf("translator returned no translation for item %d", i)
		}
		out[i] = r.Translations[0].Text
	}
	return out, nil
}
