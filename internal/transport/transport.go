// Package transport fetches catalog documents and images over HTTP.
package transport

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/storepeek/internal/metrics"
)

// ErrTransport matches every network, timeout or status failure.
var ErrTransport = errors.New("transport: request failed")

// DefaultUserAgent is the browser identity the catalog service answers to.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 6.3; WOW64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/43.0.2327.5 Safari/537.36 OPR/30.0.1812.0 (Edition developer)"

const maxDocumentBytes = 16 << 20 // 16 MiB

// StatusError reports a non-2xx answer.
type StatusError struct {
	URI        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s returned %d", e.URI, e.StatusCode)
}

// Is makes StatusError match ErrTransport.
func (e *StatusError) Is(target error) bool { return target == ErrTransport }

// Fetcher is the capability the catalog client consumes.
type Fetcher interface {
	FetchText(ctx context.Context, uri string) (string, error)
	FetchStream(ctx context.Context, uri string) (io.ReadCloser, error)
}

// Options configures an HTTPFetcher.
type Options struct {
	Timeout             time.Duration
	UserAgent           string
	MaxIdleConnsPerHost int
	Logger              zerolog.Logger
}

// HTTPFetcher implements Fetcher over one shared, pooled http.Client.
type HTTPFetcher struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPFetcher constructs a fetcher. It is safe for concurrent use.
func NewHTTPFetcher(opts Options) *HTTPFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxIdleConnsPerHost <= 0 {
		opts.MaxIdleConnsPerHost = 16
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   opts.Timeout,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost:   opts.MaxIdleConnsPerHost,
				TLSHandshakeTimeout:   opts.Timeout,
				ResponseHeaderTimeout: opts.Timeout,
				ExpectContinueTimeout: 1 * time.Second,
			},
		},
		userAgent: opts.UserAgent,
		logger:    opts.Logger.With().Str("component", "transport").Logger(),
	}
}

// FetchText returns the decoded body of uri as text.
func (f *HTTPFetcher) FetchText(ctx context.Context, uri string) (text string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("transport", OperationFrom(ctx), start, err) }()

	body, err := f.get(ctx, uri)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, maxDocumentBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", ErrTransport, uri, err)
	}
	return string(data), nil
}

// FetchStream returns the decoded body of uri. The caller closes it.
func (f *HTTPFetcher) FetchStream(ctx context.Context, uri string) (body io.ReadCloser, err error) {
	start := time.Now()
	defer func() { metrics.ObserveNetworkRequest("transport", OperationFrom(ctx), start, err) }()

	return f.get(ctx, uri)
}

func (f *HTTPFetcher) get(ctx context.Context, uri string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		f.logger.Warn().Str("uri", uri).Int("status", resp.StatusCode).Msg("unexpected upstream status")
		return nil, &StatusError{URI: uri, StatusCode: resp.StatusCode}
	}

	body, err := decode(resp)
	if err != nil {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: decode %s: %w", ErrTransport, uri, err)
	}
	return body, nil
}

// decode unwraps gzip and deflate bodies. Servers disagree on whether deflate
// means zlib framing or a raw stream, so the zlib header is sniffed.
func decode(resp *http.Response) (io.ReadCloser, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		return &decodedBody{Reader: zr, closers: []io.Closer{zr, resp.Body}}, nil
	case "deflate":
		br := bufio.NewReader(resp.Body)
		head, _ := br.Peek(2)
		if len(head) == 2 && head[0]&0x0f == 8 && (uint16(head[0])<<8|uint16(head[1]))%31 == 0 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, err
			}
			return &decodedBody{Reader: zr, closers: []io.Closer{zr, resp.Body}}, nil
		}
		fr := flate.NewReader(br)
		return &decodedBody{Reader: fr, closers: []io.Closer{fr, resp.Body}}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", resp.Header.Get("Content-Encoding"))
	}
}

type decodedBody struct {
	io.Reader
	closers []io.Closer
}

func (b *decodedBody) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type operationKey struct{}

// WithOperation labels requests made with ctx for metrics.
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, operationKey{}, operation)
}

// OperationFrom returns the label set by WithOperation.
func OperationFrom(ctx context.Context) string {
	if v, ok := ctx.Value(operationKey{}).(string); ok {
		return v
	}
	return ""
}
