package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/distill"
	distillhttp "github.com/fwojciec/distill/http"
	"github.com/fwojciec/distill/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer() *distillhttp.Server {
	s := distillhttp.NewServer()
	s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return s
}

func serve(s *distillhttp.Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) distillhttp.ErrorResponse {
	t.Helper()
	var resp distillhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/extract-file", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServer_Extract(t *testing.T) {
	t.Parallel()

	t.Run("returns the result as JSON", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.URLExtractor = &mock.URLExtractor{
			ExtractFn: func(ctx context.Context, url string) (*distill.Result, error) {
				assert.Equal(t, "https://example.com/a", url)
				r := distill.NewResult("Hello world")
				r.Title = "Hello"
				r.Meta[distill.MetaProvider] = "static"
				return r, nil
			},
		}

		rec := serve(s, jsonRequest("/extract", `{"url":"https://example.com/a"}`))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

		var got distill.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Hello world", got.Text)
		assert.Equal(t, "Hello", got.Title)
		assert.Equal(t, 11, got.Length)
		assert.Equal(t, "static", got.Meta[distill.MetaProvider])
	})

	t.Run("maps error codes to statuses", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			err    error
			status int
		}{
			{distill.Errorf(distill.EINVALID, "url is required"), http.StatusBadRequest},
			{distill.Errorf(distill.ENOCONTENT, "no content"), http.StatusUnprocessableEntity},
			{distill.Errorf(distill.EEXTRACT, "failed"), http.StatusBadGateway},
			{errors.New("boom"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s := newServer()
			s.URLExtractor = &mock.URLExtractor{
				ExtractFn: func(ctx context.Context, url string) (*distill.Result, error) {
					return nil, tc.err
				},
			}

			rec := serve(s, jsonRequest("/extract", `{"url":"x"}`))
			assert.Equal(t, tc.status, rec.Code, "code %s", distill.ErrorCode(tc.err))
		}
	})

	t.Run("reports the stages that were tried", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.URLExtractor = &mock.URLExtractor{
			ExtractFn: func(ctx context.Context, url string) (*distill.Result, error) {
				return nil, &distill.Error{
					Code:    distill.EEXTRACT,
					Message: "could not extract content from URL",
					Details: "static=failure, rendered=timeout, reader=empty",
				}
			},
		}

		rec := serve(s, jsonRequest("/extract", `{"url":"https://example.com"}`))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, distill.EEXTRACT, resp.Code)
		assert.Equal(t, "could not extract content from URL", resp.Error)
		assert.Equal(t, "static=failure, rendered=timeout, reader=empty", resp.Details)
	})

	t.Run("hides internal error messages", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.URLExtractor = &mock.URLExtractor{
			ExtractFn: func(ctx context.Context, url string) (*distill.Result, error) {
				return nil, errors.New("dial tcp 10.0.0.1:443: connection refused")
			},
		}

		rec := serve(s, jsonRequest("/extract", `{"url":"https://example.com"}`))

		resp := decodeError(t, rec)
		assert.Equal(t, distill.EINTERNAL, resp.Code)
		assert.NotContains(t, resp.Error, "10.0.0.1")
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.URLExtractor = &mock.URLExtractor{
			ExtractFn: func(ctx context.Context, url string) (*distill.Result, error) {
				t.Error("extractor should not be called")
				return nil, nil
			},
		}

		rec := serve(s, jsonRequest("/extract", `{"url":`))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, distill.EINVALID, decodeError(t, rec).Code)
	})

	t.Run("generic message when not configured", func(t *testing.T) {
		t.Parallel()

		rec := serve(newServer(), jsonRequest("/extract", `{"url":"https://example.com"}`))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, distill.ENOTCONFIGURED, resp.Code)
		assert.Equal(t, "service not configured", resp.Error)
	})

	t.Run("rejects other methods", func(t *testing.T) {
		t.Parallel()

		rec := serve(newServer(), httptest.NewRequest(http.MethodGet, "/extract", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestServer_ExtractFile(t *testing.T) {
	t.Parallel()

	t.Run("passes the upload to the extractor", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.FileExtractor = &mock.FileExtractor{
			ExtractFn: func(ctx context.Context, f *distill.File) (*distill.Result, error) {
				assert.Equal(t, "notes.txt", f.Name)
				assert.Equal(t, int64(5), f.Size)
				assert.Equal(t, []byte("hello"), f.Data)
				r := distill.NewResult("hello")
				r.Meta[distill.MetaKind] = string(distill.KindText)
				return r, nil
			},
		}

		rec := serve(s, multipartRequest(t, "file", "notes.txt", []byte("hello")))

		require.Equal(t, http.StatusOK, rec.Code)
		var got distill.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "hello", got.Text)
		assert.Equal(t, 5, got.Length)
		assert.Equal(t, "text", got.Meta[distill.MetaKind])
	})

	t.Run("files over the limit are refused without a provider call", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		s := newServer()
		s.FileExtractor = &mock.FileExtractor{
			ExtractFn: func(ctx context.Context, f *distill.File) (*distill.Result, error) {
				calls.Add(1)
				return distill.NewResult("x"), nil
			},
		}

		for _, size := range []int{distill.MaxFileSize + 1, 21 << 20} {
			rec := serve(s, multipartRequest(t, "file", "big.pdf", make([]byte, size)))

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Equal(t, distill.ETOOLARGE, decodeError(t, rec).Code)
		}
		assert.Zero(t, calls.Load())
	})

	t.Run("missing file field is invalid", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.FileExtractor = &mock.FileExtractor{
			ExtractFn: func(ctx context.Context, f *distill.File) (*distill.Result, error) {
				t.Error("extractor should not be called")
				return nil, nil
			},
		}

		rec := serve(s, multipartRequest(t, "upload", "a.txt", []byte("hi")))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		req := httptest.NewRequest(http.MethodPost, "/extract-file", strings.NewReader("plain"))
		req.Header.Set("Content-Type", "text/plain")
		rec = serve(s, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider failures are internal server errors", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.FileExtractor = &mock.FileExtractor{
			ExtractFn: func(ctx context.Context, f *distill.File) (*distill.Result, error) {
				return nil, distill.ProviderErrorf(503, "upstream unavailable")
			},
		}

		rec := serve(s, multipartRequest(t, "file", "scan.png", []byte("png")))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, distill.EPROVIDER, decodeError(t, rec).Code)
	})

	t.Run("empty extraction is unprocessable", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.FileExtractor = &mock.FileExtractor{
			ExtractFn: func(ctx context.Context, f *distill.File) (*distill.Result, error) {
				return nil, distill.Errorf(distill.ENOCONTENT, "no text found in file")
			},
		}

		rec := serve(s, multipartRequest(t, "file", "blank.pdf", []byte("%PDF")))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestServer_ExtractPremium(t *testing.T) {
	t.Parallel()

	t.Run("passes the bearer token and returns the payload", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.PremiumExtractor = &mock.PremiumExtractor{
			ExtractFn: func(ctx context.Context, token, url string) (*distill.PremiumResult, error) {
				assert.Equal(t, "tok123", token)
				assert.Equal(t, "https://example.com/p", url)
				return &distill.PremiumResult{
					Content: "Body",
					Usage:   &distill.Usage{Used: 1, Limit: 50},
				}, nil
			},
		}

		req := jsonRequest("/extract-premium", `{"url":"https://example.com/p"}`)
		req.Header.Set("Authorization", "Bearer tok123")
		rec := serve(s, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got distill.PremiumResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
		assert.Equal(t, "Body", got.Content)
		assert.Equal(t, 1, got.Usage.Used)
	})

	t.Run("quota refusal carries usage", func(t *testing.T) {
		t.Parallel()

		resets := time.Date(2025, time.November, 1, 0, 0, 0, 0, time.UTC)
		s := newServer()
		s.PremiumExtractor = &mock.PremiumExtractor{
			ExtractFn: func(ctx context.Context, token, url string) (*distill.PremiumResult, error) {
				return nil, &distill.QuotaError{
					Err:   distill.Errorf(distill.EQUOTA, "monthly premium quota exhausted"),
					Usage: &distill.Usage{Used: 50, Limit: 50, ResetsAt: resets},
				}
			},
		}

		rec := serve(s, jsonRequest("/extract-premium", `{"url":"https://example.com"}`))

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, distill.EQUOTA, resp.Code)
		require.NotNil(t, resp.Usage)
		assert.Equal(t, 50, resp.Usage.Used)
		assert.Equal(t, resets, resp.Usage.ResetsAt)
	})

	t.Run("maps entitlement and provider errors", func(t *testing.T) {
		t.Parallel()

		cases := []struct {
			err    error
			status int
		}{
			{distill.Errorf(distill.EUNAUTHORIZED, "invalid token"), http.StatusUnauthorized},
			{distill.Errorf(distill.EFORBIDDEN, "subscription required"), http.StatusForbidden},
			{distill.Errorf(distill.EINVALID, "bad url"), http.StatusBadRequest},
			{distill.ProviderErrorf(500, "premium extraction failed"), http.StatusBadGateway},
			{distill.Errorf(distill.ENOTCONFIGURED, "no key"), http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s := newServer()
			s.PremiumExtractor = &mock.PremiumExtractor{
				ExtractFn: func(ctx context.Context, token, url string) (*distill.PremiumResult, error) {
					return nil, tc.err
				},
			}

			rec := serve(s, jsonRequest("/extract-premium", `{"url":"https://example.com"}`))
			assert.Equal(t, tc.status, rec.Code, "code %s", distill.ErrorCode(tc.err))
		}
	})

	t.Run("checks credentials before the request body", func(t *testing.T) {
		t.Parallel()

		var urls []string
		s := newServer()
		s.PremiumExtractor = &mock.PremiumExtractor{
			ExtractFn: func(ctx context.Context, token, url string) (*distill.PremiumResult, error) {
				urls = append(urls, url)
				if token != "tok123" {
					return nil, distill.Errorf(distill.EUNAUTHORIZED, "missing bearer token")
				}
				return nil, distill.Errorf(distill.EINVALID, "url is required")
			},
		}

		rec := serve(s, jsonRequest("/extract-premium", `{not json`))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, distill.EUNAUTHORIZED, decodeError(t, rec).Code)

		req := jsonRequest("/extract-premium", `{not json`)
		req.Header.Set("Authorization", "Bearer tok123")
		rec = serve(s, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, distill.EINVALID, resp.Code)
		assert.Equal(t, "invalid JSON body", resp.Error)
		assert.Equal(t, []string{"", ""}, urls)
	})

	t.Run("echoes allow-listed origins only", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.AllowedOrigins = []string{"https://app.example.com"}

		req := httptest.NewRequest(http.MethodOptions, "/extract-premium", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := serve(s, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")

		req = httptest.NewRequest(http.MethodOptions, "/extract-premium", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec = serve(s, req)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServer_Preflight(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"/extract", "/extract-file", "/healthz"} {
		req := httptest.NewRequest(http.MethodOptions, path, nil)
		req.Header.Set("Origin", "https://anywhere.example")
		rec := serve(newServer(), req)

		assert.Equal(t, http.StatusNoContent, rec.Code, path)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestServer_RequestID(t *testing.T) {
	t.Parallel()

	t.Run("generates an id", func(t *testing.T) {
		t.Parallel()

		rec := serve(newServer(), httptest.NewRequest(http.MethodGet, "/healthz", nil))
		assert.Len(t, rec.Header().Get(distillhttp.RequestIDHeader), 36)
	})

	t.Run("echoes the caller's id", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set(distillhttp.RequestIDHeader, "abc-123")
		rec := serve(newServer(), req)
		assert.Equal(t, "abc-123", rec.Header().Get(distillhttp.RequestIDHeader))
	})

	t.Run("present on error responses", func(t *testing.T) {
		t.Parallel()

		rec := serve(newServer(), jsonRequest("/extract", `{`))
		assert.NotEmpty(t, rec.Header().Get(distillhttp.RequestIDHeader))
	})
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func TestServer_Health(t *testing.T) {
	t.Parallel()

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.DB = pinger{}
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("unavailable when the database is down", func(t *testing.T) {
		t.Parallel()

		s := newServer()
		s.DB = pinger{err: errors.New("disk I/O error")}
		rec := serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestServer_RateLimit(t *testing.T) {
	t.Parallel()

	s := newServer()
	s.Limiter = distillhttp.NewKeyLimiter(0.001, 1)
	s.URLExtractor = &mock.URLExtractor{
		ExtractFn: func(ctx context.Context, url string) (*distill.Result, error) {
			return distill.NewResult("ok"), nil
		},
	}

	rec := serve(s, jsonRequest("/extract", `{"url":"https://example.com"}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(s, jsonRequest("/extract", `{"url":"https://example.com"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, distill.ERATELIMIT, decodeError(t, rec).Code)

	// Another client is unaffected.
	req := jsonRequest("/extract", `{"url":"https://example.com"}`)
	req.RemoteAddr = "203.0.113.9:4000"
	rec = serve(s, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health checks are not limited.
	rec = serve(s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	s := newServer()
	s.Addr = "127.0.0.1:0"
	require.NoError(t, s.Open())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx) }()

	resp, err := http.Get(s.URL() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
