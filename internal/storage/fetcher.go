package storage

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/anime-shed/visual-pipeline-go/internal/errors"
)

// SourceFetcher retrieves the raw bytes of a submitted image. Decoding
// is deliberately left to the normalizer so size and format checks run
// before any pixels are allocated.
type SourceFetcher interface {
	FetchBytes(ctx context.Context, sourceURL string) ([]byte, error)
}

// HTTPSourceFetcher implements SourceFetcher over plain HTTP(S)
type HTTPSourceFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPSourceFetcher creates an HTTP source fetcher. maxBytes caps
// the response body; zero means no cap.
func NewHTTPSourceFetcher(maxBytes int64) SourceFetcher {
	// Transport tuned for one-shot image downloads rather than a busy
	// connection pool
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     30 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		DisableCompression:     false,
		MaxResponseHeaderBytes: 4096,

		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: true,
		},
	}

	return &HTTPSourceFetcher{
		client: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,

			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("too many redirects (limit: 3)")
				}
				return nil
			},
		},
		maxBytes: maxBytes,
	}
}

// FetchBytes downloads the source with up to 3 attempts. 4xx responses
// fail immediately; 5xx and transport errors back off linearly.
func (h *HTTPSourceFetcher) FetchBytes(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, apperrors.NewValidationError("invalid source URL", err)
	}
	req.Header.Set("Accept", "image/jpeg, image/png, image/webp, image/gif, image/bmp, image/tiff, */*")
	req.Header.Set("User-Agent", "Visual-Pipeline/1.0")
	req.Header.Set("Accept-Encoding", "gzip, deflate")

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, apperrors.NewTimeoutError("fetch cancelled", ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}

		resp, err := h.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			data, err := h.readBody(resp)
			if err != nil {
				return nil, err
			}
			return data, nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			resp.Body.Close()
			return nil, apperrors.NewNetworkError(
				fmt.Sprintf("client error: status code %d", resp.StatusCode), nil)
		default:
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: status code %d", resp.StatusCode)
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("unknown error")
	}
	return nil, apperrors.NewNetworkError("failed to fetch source after 3 attempts", lastErr)
}

func (h *HTTPSourceFetcher) readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if h.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, h.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, apperrors.NewNetworkError("failed to read source body", err)
	}
	if h.maxBytes > 0 && int64(len(data)) > h.maxBytes {
		return nil, apperrors.NewImageTooLargeError(
			fmt.Sprintf("source exceeds %d bytes", h.maxBytes), nil)
	}
	return data, nil
}
