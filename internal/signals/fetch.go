package signals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quietride.org/internal/logging"
)

const maxPayloadBytes = 4 << 20

// isLocalFile reports whether source is a path rather than an http(s) URL.
func isLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// readSource reads a payload from an http(s) URL or a local file.
func readSource(ctx context.Context, client *http.Client, source string, headers map[string]string) ([]byte, error) {
	if isLocalFile(source) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range headers {
		req.Header.Add(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "signal_downloader")),
		"http_response_body")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, source)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
}

// decodePayload decodes JSON, or YAML for local .yaml/.yml files.
func decodePayload(source string, data []byte, out any) error {
	if isLocalFile(source) {
		switch strings.ToLower(filepath.Ext(source)) {
		case ".yaml", ".yml":
			return yaml.Unmarshal(data, out)
		}
	}
	return json.Unmarshal(data, out)
}

// fetchPayload reads and decodes source into a fresh T, going through the request cache.
func fetchPayload[T any](ctx context.Context, req Request, client *http.Client, key, source string, headers map[string]string) (*T, error) {
	v, err := req.Cache.Do(key, func() (any, error) {
		data, err := readSource(ctx, client, source, headers)
		if err != nil {
			return nil, err
		}
		out := new(T)
		if err := decodePayload(source, data, out); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", key, err)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}

func authHeaders(key, value string) map[string]string {
	if key == "" || value == "" {
		return nil
	}
	return map[string]string{key: value}
}

// withTimeout bounds ctx by d when d is positive.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func newHTTPClient(client *http.Client) *http.Client {
	if client != nil {
		return client
	}
	return http.DefaultClient
}
