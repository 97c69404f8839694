package client

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/papercomputeco/superbiz/pkg/upload"
)

// Upload validates the document at path against the client's rules and
// sends it to the knowledge base.
func (c *Client) Upload(ctx context.Context, path string) (*UploadResponse, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	if err := upload.Validate(path, info.Size(), c.uploadRules); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return c.UploadReader(ctx, filepath.Base(path), f)
}

// UploadReader sends r as the multipart "file" field named name. It does
// not validate the document.
func (c *Client) UploadReader(ctx context.Context, name string, r io.Reader) (*UploadResponse, error) {
	if c.timeouts.Upload > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeouts.Upload)
		defer cancel()
	}

	// The body is streamed through a pipe so large documents are not
	// buffered in memory.
	pr, pw := io.Pipe()
	defer pr.Close()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = writer.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", pr)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := c.checkStatus(resp); err != nil {
		return nil, err
	}

	var out UploadResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("decoding /upload response: %w", err)
	}

	if out.Status != StatusSuccess {
		return &out, &BackendError{Status: out.Status, Message: "upload was not processed"}
	}
	return &out, nil
}
