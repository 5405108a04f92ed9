// ABOUTME: Typed request/response gateway for the Artifact Keeper API
// ABOUTME: Single entry point all feature code uses to talk to the server

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	"github.com/artifact-keeper/akctl/internal/transport"
)

// Gateway dispatches requests through the transport manager's current
// client. Each dispatch captures one transport snapshot; a profile switch
// mid-flight never redirects a request already underway.
type Gateway struct {
	transport *transport.Manager
}

func New(m *transport.Manager) *Gateway {
	return &Gateway{transport: m}
}

// Request dispatches method path with an optional JSON body and decodes
// the 2xx response body into T.
func Request[T any](ctx context.Context, gw *Gateway, method, path string, body any) (T, error) {
	var out T
	data, err := gw.do(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, &DecodeError{Err: err}
	}
	return out, nil
}

// RequestVoid dispatches method path and discards the response body on
// success. For delete/action endpoints with empty bodies.
func (gw *Gateway) RequestVoid(ctx context.Context, method, path string, body any) error {
	_, err := gw.do(ctx, method, path, body)
	return err
}

func (gw *Gateway) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	snap := gw.transport.Current()

	target, ok := joinURL(snap.BaseURL, path)
	if !ok {
		return nil, ErrInvalidURL
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", "application/json")
	setAuth(req, snap.Token)

	return dispatch(snap, req)
}

// UploadMultipart posts fileBytes as a multipart/form-data "file" part,
// plus optional scalar text fields, following the same dispatch and
// classification contract as Request.
func (gw *Gateway) UploadMultipart(ctx context.Context, path string, fileBytes []byte, fileName string, fields map[string]string) error {
	snap := gw.transport.Current()

	target, ok := joinURL(snap.BaseURL, path)
	if !ok {
		return ErrInvalidURL
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := part.Write(fileBytes); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return fmt.Errorf("failed to build multipart body: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to build multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, &buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	setAuth(req, snap.Token)

	_, err = dispatch(snap, req)
	return err
}

// dispatch runs the request against the captured snapshot and classifies
// the outcome.
func dispatch(snap transport.Snapshot, req *http.Request) ([]byte, error) {
	resp, err := snap.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot reach %s: %v", ErrInvalidResponse, snap.BaseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{Status: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

// setAuth attaches the bearer token. The header is absent entirely when no
// token is set, never an empty string.
func setAuth(req *http.Request, token *string) {
	if token != nil {
		req.Header.Set("Authorization", "Bearer "+*token)
	}
}

// joinURL concatenates the base URL and path, reporting false when the
// base URL is empty or the result does not parse.
func joinURL(baseURL, path string) (string, bool) {
	if baseURL == "" {
		return "", false
	}
	u, err := url.Parse(baseURL + path)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// BuildURL returns the absolute URL for path, or false when no server is
// configured.
func (gw *Gateway) BuildURL(path string) (string, bool) {
	return joinURL(gw.transport.BaseURL(), path)
}

// BuildDownloadURL returns the artifact download URL with every path
// segment percent-encoded.
func (gw *Gateway) BuildDownloadURL(repoKey, artifactPath string) (string, bool) {
	base := gw.transport.BaseURL()
	if base == "" {
		return "", false
	}

	segments := strings.Split(artifactPath, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}

	return base + "/api/v1/repositories/" + url.PathEscape(repoKey) + "/artifacts/" + strings.Join(segments, "/"), true
}
