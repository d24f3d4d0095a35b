package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/room"
)

// Size ceilings per attachment kind.
const (
	MaxImageBytes = 10 << 20 // 10 MiB
	MaxVideoBytes = 50 << 20 // 50 MiB
)

var (
	// ErrUnsupportedType rejects files outside the image/video allow-list.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge rejects files over the ceiling for their kind.
	ErrTooLarge = errors.New("file too large")
	// ErrUploadFailed wraps a non-success response from the server.
	ErrUploadFailed = errors.New("upload failed")
)

// allowed maps sniffed MIME types to the attachment kind they produce.
var allowed = map[string]room.AttachmentKind{
	"image/jpeg":      room.AttachmentImage,
	"image/png":       room.AttachmentImage,
	"image/gif":       room.AttachmentImage,
	"image/webp":      room.AttachmentImage,
	"video/mp4":       room.AttachmentVideo,
	"video/webm":      room.AttachmentVideo,
	"video/quicktime": room.AttachmentVideo,
}

// Validate checks a sniffed MIME type and byte size against the
// allow-list and per-kind ceiling. It runs before any bytes leave the
// machine; rejected files are never transmitted.
func Validate(mime string, size int64) (room.AttachmentKind, error) {
	kind, ok := allowed[mime]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mime)
	}
	limit := int64(MaxImageBytes)
	if kind == room.AttachmentVideo {
		limit = MaxVideoBytes
	}
	if size > limit {
		return "", fmt.Errorf("%w: %d bytes exceeds %d byte limit for %s", ErrTooLarge, size, limit, kind)
	}
	return kind, nil
}

// Request describes one attachment upload.
type Request struct {
	Path     string // local file to send
	Sender   string
	Room     string
	ParentID *int64 // optional reply target
	Caption  string // optional text accompanying the file
}

// Client posts attachments to the upload side-channel. The response only
// reports success or failure; the resulting message arrives later over
// the room's event stream.
type Client struct {
	base   string
	header http.Header
	httpc  *http.Client
	log    *zerolog.Logger
}

// NewClient builds an upload client for the given HTTP base URL. The
// header, when non-nil, is attached to every request.
func NewClient(base string, header http.Header, logger *zerolog.Logger) *Client {
	return &Client{
		base:   base,
		header: header,
		httpc:  &http.Client{Timeout: 2 * time.Minute},
		log:    logger,
	}
}

// Send validates and uploads one file. Validation failures surface before
// any request is made.
func (c *Client) Send(ctx context.Context, req Request) error {
	f, err := os.Open(req.Path)
	if err != nil {
		return fmt.Errorf("open attachment: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat attachment: %w", err)
	}

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return fmt.Errorf("detect attachment type: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind attachment: %w", err)
	}

	kind, err := Validate(mtype.String(), fi.Size())
	if err != nil {
		return err
	}

	body, contentType, err := encodeForm(f, filepath.Base(req.Path), req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/upload-file/", body)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	for k, vs := range c.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	c.log.Debug().
		Str("room", req.Room).
		Str("kind", string(kind)).
		Int64("size", fi.Size()).
		Msg("uploading attachment")

	resp, err := c.httpc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s", ErrUploadFailed, serverError(resp.Body, resp.StatusCode))
	}
	return nil
}

func encodeForm(file io.Reader, filename string, req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", fmt.Errorf("encode upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", fmt.Errorf("encode upload form: %w", err)
	}

	fields := map[string]string{
		"sender":    req.Sender,
		"room_name": req.Room,
	}
	if req.ParentID != nil {
		fields["parent_id"] = strconv.FormatInt(*req.ParentID, 10)
	}
	if req.Caption != "" {
		fields["content"] = req.Caption
	}
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, "", fmt.Errorf("encode upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("encode upload form: %w", err)
	}
	return &buf, w.FormDataContentType(), nil
}

func serverError(body io.Reader, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 4096)).Decode(&payload); err == nil && payload.Error != "" {
		return payload.Error
	}
	return fmt.Sprintf("server returned status %d", status)
}
