package client

// http_client.go = talks to the content page's JSON endpoints on behalf of one detail page.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"manhwahub/internal/discussion/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/time/rate"
)

const (
	// TabLoadHeader asks the detail view for a single tab fragment instead of the full page
	TabLoadHeader   = "Tab-Load"
	RequestIDHeader = "X-Request-ID"
)

// Options configures an HTTPClient. Zero values fall back to the defaults below.
type Options struct {
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	CSRFCookieName    string
	CSRFHeaderName    string
	Logger            zerolog.Logger
	// Transport overrides the underlying round tripper, mostly for tests
	Transport http.RoundTripper
}

// HTTPClient is the only component that performs network calls
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	csrf       *CSRFProvider
	csrfHeader string
	timeout    time.Duration
	limiter    *rate.Limiter // throttles mutating requests only
	log        zerolog.Logger
}

// constructor for HTTP client
func NewHTTPClient(apiURL string, opts Options) (*HTTPClient, error) {
	base, err := url.Parse(strings.TrimRight(apiURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host are required", apiURL)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 5
	}
	if opts.Burst < 1 {
		opts.Burst = 5
	}
	if opts.CSRFCookieName == "" {
		opts.CSRFCookieName = DefaultCSRFCookieName
	}
	if opts.CSRFHeaderName == "" {
		opts.CSRFHeaderName = DefaultCSRFHeaderName
	}

	return &HTTPClient{
		baseURL: base,
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Jar:       jar,
			Transport: opts.Transport,
		},
		csrf:       NewCSRFProvider(jar, base, opts.CSRFCookieName),
		csrfHeader: opts.CSRFHeaderName,
		timeout:    opts.Timeout,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		log:        opts.Logger.With().Str("component", "http_client").Logger(),
	}, nil
}

// CSRF returns the token provider backed by this client's cookie jar
func (c *HTTPClient) CSRF() *CSRFProvider {
	return c.csrf
}

// SetCookies stores cookies (session, csrf) for the api host
func (c *HTTPClient) SetCookies(cookies []*http.Cookie) {
	c.httpClient.Jar.SetCookies(c.baseURL, cookies)
}

// Cookies returns the cookies currently held for the api host
func (c *HTTPClient) Cookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// Login posts credentials, the session cookie lands in the jar
func (c *HTTPClient) Login(ctx context.Context, request *LoginRequest) (*LoginResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, "/accounts/login/", request, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, decodeAPIError("login", resp)
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return &result, nil
}

// set view: fire-and-forget counter increment, callers only log the outcome
func (c *HTTPClient) SetView(ctx context.Context, manhwaID int64) (*SetViewResponse, error) {
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/manhwas/%d/set_view/", manhwaID), nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, decodeAPIError("set view", resp)
	}

	var result SetViewResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode set view response: %w", err)
	}
	return &result, nil
}

// LoadThread fetches the pre-rendered comment thread fragment
func (c *HTTPClient) LoadThread(ctx context.Context, manhwaID int64) (string, error) {
	header := http.Header{}
	header.Set(TabLoadHeader, "comments")

	resp, err := c.do(ctx, http.MethodGet, fmt.Sprintf("/detail/%d/", manhwaID), nil, header)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return "", decodeAPIError("load thread", resp)
	}

	var result ThreadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode thread response: %w", err)
	}
	return result.HTML, nil
}

// CreateComment posts a new top-level comment (parent nil) or a reply
func (c *HTTPClient) CreateComment(ctx context.Context, manhwaID int64, request *CreateCommentRequest) (*models.Comment, error) {
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/manhwas/%d/comments/", manhwaID), request, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, decodeAPIError("create comment", resp)
	}

	var result CreateCommentResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode comment response: %w", err)
	}
	if result.Comment == nil {
		return nil, fmt.Errorf("decode comment response: missing comment")
	}
	return result.Comment, nil
}

// React toggles the viewer's reaction and returns the authoritative counts
func (c *HTTPClient) React(ctx context.Context, commentID models.CommentID, reaction models.Reaction) (*ReactionResult, error) {
	request := ReactionRequest{Reaction: reaction.WireCode(), CommentID: commentID}

	resp, err := c.do(ctx, http.MethodPost, "/api/comment-reaction/", &request, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, decodeAPIError("comment reaction", resp)
	}

	var result ReactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode reaction response: %w", err)
	}
	if result.Comment == nil {
		return nil, fmt.Errorf("decode reaction response: missing comment")
	}
	return &ReactionResult{
		Counts:  result.Comment.Counts().Clamp(),
		Message: result.Message,
	}, nil
}

// do sends one request. Mutating requests wait on the limiter and carry the csrf header.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, header http.Header) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)

	mutating := method != http.MethodGet && method != http.MethodHead
	if mutating {
		if err := c.limiter.Wait(ctx); err != nil {
			cancel()
			return nil, fmt.Errorf("%s %s: %w", method, path, err)
		}
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			cancel()
			return nil, err
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, reader)
	if err != nil {
		cancel()
		return nil, err
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutating {
		if token, ok := c.csrf.Token(); ok {
			req.Header.Set(c.csrfHeader, token)
		}
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		cancel()
		c.log.Debug().Err(err).Str("request_id", requestID).Str("method", method).Str("path", path).Msg("request failed")
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.log.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(started)).
		Msg("request done")

	// the context must outlive the body, release it when the caller closes
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
