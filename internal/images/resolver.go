// Package images resolves chat-platform photo attachments into inline
// base64 payloads for provider submission.
//
// FLOW: descriptor → file-location lookup → bounded download → base64.
// The size ceiling is enforced at every point where a size becomes known
// (declared, server-reported, actually downloaded), failing on the cheapest
// check first. Declared and reported sizes are untrusted, so the downloaded
// byte length is always re-verified.
package images

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/chatrelay/reply-gateway/internal/adapters"
)

// MaxImageBytes is the inline submission ceiling (5 MiB).
const MaxImageBytes = 5 * 1024 * 1024

// fallbackMediaType is used when neither the descriptor nor the download
// response declares a type.
const fallbackMediaType = "image/jpeg"

// ImageTooLargeError means the attachment exceeds the inline ceiling at one
// of the three checkpoints. Recoverable: callers typically substitute an
// explanatory reply.
type ImageTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *ImageTooLargeError) Error() string {
	return fmt.Sprintf("image size %d exceeds limit of %d bytes", e.Size, e.Limit)
}

// ImageMetadataMissingError means the file-location lookup succeeded but
// returned no retrievable path.
type ImageMetadataMissingError struct {
	FileID string
}

func (e *ImageMetadataMissingError) Error() string {
	return fmt.Sprintf("no retrievable path for file %q", e.FileID)
}

// Descriptor identifies one remote attachment.
type Descriptor struct {
	FileID string

	// MIMEType is the caller-declared type, if any.
	MIMEType string

	// DeclaredSize is the caller-declared byte size, 0 when unknown.
	// Untrusted; used only to fail fast before any network call.
	DeclaredSize int64
}

// Image is a resolved attachment ready for inline submission.
type Image struct {
	MediaType  string
	Base64Data string
}

// Resolver fetches attachments from a bot-file-API shaped endpoint:
// GET {base}/bot{token}/getFile?file_id=… for the location, then
// GET {base}/file/bot{token}/{path} for the bytes.
type Resolver struct {
	baseURL string
	client  *http.Client
}

// NewResolver creates a resolver against the given file-API base URL.
// A nil client uses http.DefaultClient.
func NewResolver(baseURL string, client *http.Client) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{baseURL: baseURL, client: client}
}

type fileLookupResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		FilePath string `json:"file_path"`
		FileSize int64  `json:"file_size"`
	} `json:"result"`
}

// Resolve fetches the attachment and returns it base64-encoded. Failure
// modes: *ImageTooLargeError, *ImageMetadataMissingError,
// *adapters.UpstreamError for non-2xx HTTP statuses, and transport errors
// propagated unchanged.
func (r *Resolver) Resolve(ctx context.Context, token string, d Descriptor) (*Image, error) {
	if d.DeclaredSize > MaxImageBytes {
		return nil, &ImageTooLargeError{Size: d.DeclaredSize, Limit: MaxImageBytes}
	}

	lookupURL := fmt.Sprintf("%s/bot%s/getFile?file_id=%s", r.baseURL, token, url.QueryEscape(d.FileID))
	lookup, err := r.get(ctx, "file lookup", lookupURL)
	if err != nil {
		return nil, err
	}

	var meta fileLookupResponse
	if err := json.Unmarshal(lookup, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse file lookup response: %w", err)
	}
	if !meta.OK || meta.Result.FilePath == "" {
		return nil, &ImageMetadataMissingError{FileID: d.FileID}
	}
	if meta.Result.FileSize > MaxImageBytes {
		return nil, &ImageTooLargeError{Size: meta.Result.FileSize, Limit: MaxImageBytes}
	}

	downloadURL := fmt.Sprintf("%s/file/bot%s/%s", r.baseURL, token, meta.Result.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &adapters.UpstreamError{API: "file download", Status: resp.StatusCode, Body: string(body)}
	}

	// Read one byte past the limit so an oversized body is detectable
	// without buffering it whole.
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > MaxImageBytes {
		return nil, &ImageTooLargeError{Size: int64(len(data)), Limit: MaxImageBytes}
	}

	mediaType := d.MIMEType
	if mediaType == "" {
		mediaType = resp.Header.Get("Content-Type")
	}
	if mediaType == "" {
		mediaType = fallbackMediaType
	}

	return &Image{
		MediaType:  mediaType,
		Base64Data: base64.StdEncoding.EncodeToString(data),
	}, nil
}

// get performs a GET returning the body, with non-2xx statuses surfaced as
// *adapters.UpstreamError.
func (r *Resolver) get(ctx context.Context, api, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &adapters.UpstreamError{API: api, Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
