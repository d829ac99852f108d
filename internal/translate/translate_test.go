package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erendikmenn/erenailab-blog/internal/config"
)

// upper is a Translator that uppercases its input.
type upper struct {
	calls atomic.Int32
}

func (u *upper) Translate(_ context.Context, texts []string, _, _ string) ([]string, error) {
	u.calls.Add(1)
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = strings.ToUpper(t)
	}
	return out, nil
}

type failing struct{}

func (failing) Translate(context.Context, []string, string, string) ([]string, error) {
	return nil, errors.New("upstream down")
}

func newAzureServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/translate", r.URL.Path)
		assert.Equal(t, "3.0", r.URL.Query().Get("api-version"))
		assert.Equal(t, "en", r.URL.Query().Get("to"))
		assert.Equal(t, "tr", r.URL.Query().Get("from"))
		assert.Equal(t, "secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		assert.Equal(t, "westeurope", r.Header.Get("Ocp-Apim-Subscription-Region"))

		var body []azureText
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		resp := make([]map[string]any, len(body))
		for i, b := range body {
			resp[i] = map[string]any{
				"translations": []map[string]string{{"text": "EN:" + b.Text, "to": "en"}},
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAzureClientTranslate(t *testing.T) {
	var calls atomic.Int32
	srv := newAzureServer(t, &calls)

	client := NewAzureClient(config.TranslatorConfig{Endpoint: srv.URL + "/", Key: "secret", Region: "westeurope"})
	out, err := client.Translate(context.Background(), []string{"Merhaba", "Dünya"}, "en", "tr")

	require.NoError(t, err)
	assert.Equal(t, []string{"EN:Merhaba", "EN:Dünya"}, out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAzureClientSkipsSameLanguage(t *testing.T) {
	client := NewAzureClient(config.TranslatorConfig{Endpoint: "http://127.0.0.1:1", Key: "k"})
	out, err := client.Translate(context.Background(), []string{"hello"}, "en", "en")
	require.NoError(t, err)
	assert.Equal(t, []string{"hello"}, out)
}

func TestAzureClientBatchesLargeRequests(t *testing.T) {
	var calls atomic.Int32
	srv := newAzureServer(t, &calls)
	client := NewAzureClient(config.TranslatorConfig{Endpoint: srv.URL, Key: "secret", Region: "westeurope"})

	texts := make([]string, 250)
	for i := range texts {
		texts[i] = "x"
	}
	out, err := client.Translate(context.Background(), texts, "en", "tr")
	require.NoError(t, err)
	assert.Len(t, out, 250)
	assert.Equal(t, int32(3), calls.Load())
}

func TestBatchesRespectCharacterLimit(t *testing.T) {
	big := strings.Repeat("a", maxBatchChars-10)
	got := batches([]string{big, "0123456789ab", "c"})
	require.Len(t, got, 2)
	assert.Equal(t, []string{big}, got[0])
	assert.Equal(t, []string{"0123456789ab", "c"}, got[1])
}

func TestAzureClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":401000}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewAzureClient(config.TranslatorConfig{Endpoint: srv.URL, Key: "bad"})
	_, err := client.Translate(context.Background(), []string{"x"}, "en", "tr")
	assert.ErrorContains(t, err, "translator returned 401")
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	tr := New(config.TranslatorConfig{}, nil)
	_, err := tr.Translate(context.Background(), []string{"x"}, "en", "tr")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBreakerFallsBackAndOpens(t *testing.T) {
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "fallbacks"})
	b := NewBreaker(failing{}, fallbacks)

	for i := 0; i < 5; i++ {
		out, err := b.Translate(context.Background(), []string{"metin"}, "en", "tr")
		assert.ErrorIs(t, err, ErrFallback)
		assert.Equal(t, []string{"metin"}, out)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Translate(context.Background(), []string{"metin"}, "en", "tr")
	assert.ErrorIs(t, err, ErrFallback)
	assert.Equal(t, 6.0, testutil.ToFloat64(fallbacks))
}

func TestBreakerPassesThrough(t *testing.T) {
	b := NewBreaker(&upper{}, nil)
	out, err := b.Translate(context.Background(), []string{"abc"}, "en", "tr")
	require.NoError(t, err)
	assert.Equal(t, []string{"ABC"}, out)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

const sampleMarkdown = `---
title: Örnek
---

# Başlık

Bir paragraf
iki satır.

` + "```go\n# not a heading\nfmt.Println(1)\n```" + `

| a | b |
|---|---|

![diyagram](/img/a.png)

[ref]: https://example.com

<Callout type="info" />

---

## Son söz
`

func TestSplitRoundTrips(t *testing.T) {
	parts := Split(sampleMarkdown)

	var b strings.Builder
	var translatable []string
	for _, p := range parts {
		b.WriteString(p.String())
		if p.Translate {
			translatable = append(translatable, p.Text)
		}
	}

	assert.Equal(t, sampleMarkdown, b.String())
	assert.Equal(t, []string{"Başlık", "Bir paragraf\niki satır.", "Son söz"}, translatable)
}

func TestMarkdownTranslatesOnlyProse(t *testing.T) {
	u := &upper{}
	out, err := Markdown(context.Background(), u, sampleMarkdown, "en", "tr")
	require.NoError(t, err)

	assert.Equal(t, int32(1), u.calls.Load())
	assert.Contains(t, out, "# BAŞLIK\n")
	assert.Contains(t, out, "BIR PARAGRAF\nIKI SATIR.\n")
	assert.Contains(t, out, "## SON SÖZ\n")
	assert.Contains(t, out, "title: Örnek")
	assert.Contains(t, out, "# not a heading")
	assert.Contains(t, out, "![diyagram](/img/a.png)")
	assert.Contains(t, out, `<Callout type="info" />`)
}

func TestMarkdownFallbackKeepsOriginal(t *testing.T) {
	out, err := Markdown(context.Background(), NewBreaker(failing{}, nil), "Merhaba dünya", "en", "tr")
	assert.ErrorIs(t, err, ErrFallback)
	assert.Equal(t, "Merhaba dünya", out)
}

func TestMarkdownWithoutProseSkipsTranslator(t *testing.T) {
	u := &upper{}
	out, err := Markdown(context.Background(), u, "```\ncode\n```\n", "en", "tr")
	require.NoError(t, err)
	assert.Equal(t, "```\ncode\n```\n", out)
	assert.Equal(t, int32(0), u.calls.Load())
}
