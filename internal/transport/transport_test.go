package transport

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/rs/zerolog"
)

func newTestFetcher() *HTTPFetcher {
	return NewHTTPFetcher(Options{Timeout: 2 * time.Second, Logger: zerolog.Nop()})
}

func compress(t *testing.T, encoding, payload string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.WriteCloser
	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "zlib":
		w = zlib.NewWriter(&buf)
	case "raw":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		if err != nil {
			t.Fatalf("flate writer: %v", err)
		}
		w = fw
	}
	if _, err := w.Write([]byte(payload)); err != nil {
		t.Fatalf("compress: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close compressor: %v", err)
	}
	return buf.Bytes()
}

func TestFetchTextDecodesBodies(t *testing.T) {
	const payload = `<feed><title>hello</title></feed>`
	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{"identity", "", []byte(payload)},
		{"gzip", "gzip", compress(t, "gzip", payload)},
		{"deflate zlib", "deflate", compress(t, "zlib", payload)},
		{"deflate raw", "deflate", compress(t, "raw", payload)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Header.Get("User-Agent") != DefaultUserAgent {
					t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
				}
				if r.Header.Get("Accept-Encoding") != "gzip, deflate" {
					t.Errorf("Accept-Encoding = %q", r.Header.Get("Accept-Encoding"))
				}
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			got, err := newTestFetcher().FetchText(context.Background(), srv.URL)
			if err != nil {
				t.Fatalf("FetchText() unexpected error: %v", err)
			}
			if got != payload {
				t.Fatalf("FetchText() = %q, want %q", got, payload)
			}
		})
	}
}

func TestFetchTextStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestFetcher().FetchText(context.Background(), srv.URL+"/missing")
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("FetchText() error = %v, want ErrTransport", err)
	}
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Fatalf("FetchText() error = %v, want StatusError 404", err)
	}
}

func TestFetchTextCancelled(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestFetcher().FetchText(ctx, srv.URL)
	if !errors.Is(err, ErrTransport) || !errors.Is(err, context.Canceled) {
		t.Fatalf("FetchText() error = %v, want ErrTransport wrapping context.Canceled", err)
	}
}

func TestFetchStream(t *testing.T) {
	image := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(image)
	}))
	defer srv.Close()

	body, err := newTestFetcher().FetchStream(WithOperation(context.Background(), "image"), srv.URL)
	if err != nil {
		t.Fatalf("FetchStream() unexpected error: %v", err)
	}
	defer body.Close()
	got, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read stream: %v", err)
	}
	if !bytes.Equal(got, image) {
		t.Fatalf("FetchStream() = %x, want %x", got, image)
	}
}

func TestFetchUnsupportedEncoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "br")
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	if _, err := newTestFetcher().FetchText(context.Background(), srv.URL); !errors.Is(err, ErrTransport) {
		t.Fatalf("FetchText() error = %v, want ErrTransport", err)
	}
}

func TestOperationLabel(t *testing.T) {
	if got := OperationFrom(context.Background()); got != "" {
		t.Fatalf("OperationFrom(empty) = %q", got)
	}
	if got := OperationFrom(WithOperation(context.Background(), "reviews")); got != "reviews" {
		t.Fatalf("OperationFrom() = %q, want reviews", got)
	}
}
