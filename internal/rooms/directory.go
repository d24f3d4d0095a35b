package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Room is one entry in the server's room directory.
type Room struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Directory is a thin client for the room CRUD endpoints. Room lifecycle
// is ordinary request/response traffic, fully separate from the realtime
// event stream.
type Directory struct {
	base   string
	header http.Header
	httpc  *http.Client
}

// NewDirectory builds a directory client for the given HTTP base URL.
func NewDirectory(base string, header http.Header) *Directory {
	return &Directory{
		base:   strings.TrimRight(base, "/"),
		header: header,
		httpc:  &http.Client{Timeout: 10 * time.Second},
	}
}

// List fetches all rooms.
func (d *Directory) List(ctx context.Context) ([]Room, error) {
	var out []Room
	if err := d.do(ctx, http.MethodGet, "/api/rooms/", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create makes a room with the given name, returning the existing room
// if one already has that name.
func (d *Directory) Create(ctx context.Context, name string) (Room, error) {
	if strings.TrimSpace(name) == "" {
		return Room{}, fmt.Errorf("room name is required")
	}
	body := map[string]string{"name": name}
	var out Room
	if err := d.do(ctx, http.MethodPost, "/api/rooms/create/", body, &out); err != nil {
		return Room{}, err
	}
	return out, nil
}

// Delete removes a room by name.
func (d *Directory) Delete(ctx context.Context, name string) error {
	path := fmt.Sprintf("/api/rooms/%s/delete/", url.PathEscape(name))
	return d.do(ctx, http.MethodDelete, path, nil, nil)
}

func (d *Directory) do(ctx context.Context, method, path string, in, out any) error {
	var body *strings.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = strings.NewReader(string(data))
	} else {
		body = strings.NewReader("")
	}

	req, err := http.NewRequestWithContext(ctx, method, d.base+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range d.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := d.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil && payload.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, payload.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
