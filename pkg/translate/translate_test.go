package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLanguages(t *testing.T) {
	tests := []struct {
		source, target string
		err            error
	}{
		{"en", "zh-CN", nil},
		{"auto", "en", nil},
		{"zh-CN", "zh-CN", ErrSameLanguage},
		{"zh-CN", "zh-cn", ErrSameLanguage},
		{"en", "en", ErrSameLanguage},
		{"en", "", ErrInvalidLanguage},
		{"en", "auto", ErrInvalidLanguage},
		{"not a tag!", "en", ErrInvalidLanguage},
	}
	for _, tt := range tests {
		err := ValidateLanguages(tt.source, tt.target)
		if tt.err == nil {
			assert.NoError(t, err, "%s->%s", tt.source, tt.target)
		} else {
			assert.ErrorIs(t, err, tt.err, "%s->%s", tt.source, tt.target)
		}
	}
}

func TestEveryListedPairIsAcceptedOrRejected(t *testing.T) {
	langs := Languages()
	for _, s := range append([]Language{{Code: Auto}}, langs...) {
		for _, d := range langs {
			err := ValidateLanguages(s.Code, d.Code)
			if s.Code == d.Code {
				assert.ErrorIs(t, err, ErrSameLanguage)
			} else {
				assert.NoError(t, err, "%s->%s", s.Code, d.Code)
			}
		}
	}
}

func TestServiceDispatch(t *testing.T) {
	var calls atomic.Int32
	svc := NewService()
	svc.Register("Google", ProviderFunc(func(_ context.Context, text, source, target string) (string, error) {
		calls.Add(1)
		return text + "@" + target, nil
	}))
	svc.Register("bing", ProviderFunc(func(context.Context, string, string, string) (string, error) {
		return "", errors.New("quota exceeded")
	}))
	assert.Equal(t, []string{"google", "bing"}, svc.Services())
	assert.True(t, svc.Has("GOOGLE"))

	ctx := context.Background()
	out, err := svc.Translate(ctx, "hello", "en", "zh-CN", "GOOGLE")
	require.NoError(t, err)
	assert.Equal(t, "hello@zh-CN", out)

	out, err = svc.Translate(ctx, "", "en", "en", "google")
	require.NoError(t, err)
	assert.Empty(t, out, "empty text short-circuits before the guard")

	_, err = svc.Translate(ctx, "hello", "en", "en", "google")
	assert.ErrorIs(t, err, ErrSameLanguage)

	_, err = svc.Translate(ctx, "hello", "en", "de", "papago")
	assert.ErrorIs(t, err, ErrUnknownService)

	_, err = svc.Translate(ctx, "hello", "en", "de", "bing")
	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "bing", perr.Service)
	assert.Contains(t, err.Error(), "quota exceeded")

	assert.Equal(t, int32(1), calls.Load())
}

func TestClientTranslate(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch r.URL.Path {
		case "/api/translate":
			var req Request
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			if req.Service == "broken" {
				w.WriteHeader(http.StatusInternalServerError)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "provider down"})
				return
			}
			_ = json.NewEncoder(w).Encode(Response{Success: true, TranslatedText: "你好:" + req.SourceLang + ":" + req.TargetLang + ":" + req.Service})
		case "/api/services":
			_ = json.NewEncoder(w).Encode(ServicesResponse{Services: []string{"google", "deepl"}})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/api/", nil)
	ctx := context.Background()

	out, err := c.Translate(ctx, "hello", "en", "zh-CN", "google")
	require.NoError(t, err)
	assert.Equal(t, "你好:en:zh-CN:google", out)

	_, err = c.Translate(ctx, "hello", "ja", "ja", "google")
	assert.ErrorIs(t, err, ErrSameLanguage)
	_, err = c.Translate(ctx, "hello", "zh-CN", "zh-cn", "google")
	assert.ErrorIs(t, err, ErrSameLanguage)
	_, err = c.Translate(ctx, "hello", "en", "not a language", "google")
	assert.ErrorIs(t, err, ErrInvalidLanguage)
	assert.Equal(t, int32(1), requests.Load(), "guard rejects before any request")

	_, err = c.Translate(ctx, "hello", "en", "de", "broken")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "provider down", apiErr.Error())
	assert.Equal(t, int32(2), requests.Load(), "failures are not retried")

	services, err := c.Services(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"google", "deepl"}, services)
}

func TestGoogleProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "gtx", q.Get("client"))
		assert.Equal(t, "en", q.Get("sl"))
		assert.Equal(t, "zh-CN", q.Get("tl"))
		assert.Equal(t, "hello. world", q.Get("q"))
		_, _ = w.Write([]byte(`[[["你好。","hello.",null,null,1],["世界","world",null,null,1]],null,"en"]`))
	}))
	defer srv.Close()

	out, err := NewGoogle(srv.URL, nil).Translate(context.Background(), "hello. world", "en", "zh-CN")
	require.NoError(t, err)
	assert.Equal(t, "你好。世界", out)
}

func TestParseGoogleRejectsGarbage(t *testing.T) {
	_, err := parseGoogle([]byte(`{"error":"x"}`))
	assert.Error(t, err)
	_, err = parseGoogle([]byte(`[[]]`))
	assert.Error(t, err)
}

func TestDeepLProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "DeepL-Auth-Key secret", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "ZH", r.PostForm.Get("target_lang"))
		assert.Equal(t, "EN", r.PostForm.Get("source_lang"))
		_, _ = w.Write([]byte(`{"translations":[{"detected_source_language":"EN","text":"你好"}]}`))
	}))
	defer srv.Close()

	out, err := NewDeepL(srv.URL, "secret", nil).Translate(context.Background(), "hello", "en", "zh-CN")
	require.NoError(t, err)
	assert.Equal(t, "你好", out)

	_, err = NewDeepL(srv.URL, "", nil).Translate(context.Background(), "hello", "en", "de")
	assert.Error(t, err)
}

func TestProviderHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewGoogle(srv.URL, nil).Translate(context.Background(), "x", "en", "de")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 429")
}

func TestUpstreamForwardsServiceName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode(Response{TranslatedText: req.Service})
	}))
	defer srv.Close()

	up := NewUpstream(NewClient(srv.URL, nil), "youdao")
	out, err := up.Translate(context.Background(), "hello", "en", "zh-CN")
	require.NoError(t, err)
	assert.Equal(t, "youdao", out)
}

func TestBase(t *testing.T) {
	assert.Equal(t, "zh", Base("zh-CN"))
	assert.Equal(t, "en", Base("en"))
	assert.Equal(t, "ZH", deeplCode("zh-CN"))
	assert.Equal(t, "DE", deeplCode("de"))
}
