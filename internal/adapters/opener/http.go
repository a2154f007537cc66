package opener

import (
	"context"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"

	"loan_audit/internal/ports"
)

// HTTPOpener downloads inputs given as http(s) links, typically presigned
// URLs of the core-banking export share.
type HTTPOpener struct {
	Client  *http.Client
	MaxSize int64
}

func NewHTTPOpener(cli *http.Client) *HTTPOpener {
	if cli == nil {
		cli = &http.Client{}
	}
	return &HTTPOpener{Client: cli}
}

// Open downloads url. Presigned links rarely end in a file extension, so the
// attachment file name, when the server sends one, becomes Meta.Path.
func (h *HTTPOpener) Open(ctx context.Context, url string) (io.ReadCloser, ports.Meta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, ports.Meta{}, fmt.Errorf("bad input url: %w", err)
	}
	req.Header.Set("User-Agent", "loan_audit")

	resp, err := h.Client.Do(req)
	if err != nil {
		log.Printf("[INPUT][HTTP][ERR] %s: %v", url, err)
		return nil, ports.Meta{}, err
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ports.Meta{}, fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		resp.Body.Close()
		log.Printf("[INPUT][HTTP][ERR] %s: status=%d", url, resp.StatusCode)
		return nil, ports.Meta{}, fmt.Errorf("download %s: http status %d", url, resp.StatusCode)
	case h.MaxSize > 0 && resp.ContentLength > h.MaxSize:
		resp.Body.Close()
		return nil, ports.Meta{}, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrTooLarge, url, resp.ContentLength, h.MaxSize)
	}

	meta := ports.Meta{
		Source:      "https",
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
		Path:        url,
	}
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		meta.Path = params["filename"]
	}
	log.Printf("[INPUT][HTTP] %s name=%q size=%d type=%q", url, meta.Path, meta.Size, meta.ContentType)
	return capReader(resp.Body, h.MaxSize, url), meta, nil
}
