package pdfrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/kerpat/serverdogovor/util/httpx"
)

type httpEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTP talks to a Gotenberg-compatible conversion endpoint.
func NewHTTP(baseURL string) Engine {
	return &httpEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  httpx.LongClient(),
	}
}

func (e *httpEngine) Convert(ctx context.Context, html string) ([]byte, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/forms/chromium/convert/html", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pdf render failed: %s", resp.Status)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(pdf) == 0 {
		return nil, errors.New("pdf render: empty document")
	}
	return pdf, nil
}
