// Package message defines the daemon's IPC protocol.
//
// All messages are newline-delimited JSON: each request and each
// response is exactly one line, <json>\n. Binary payloads (images) are
// base64-encoded so they are safe to embed in JSON strings.
package message

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/clipvault/clipvault/internal/item"
)

// Type identifies the kind of request.
type Type string

const (
	TypeList      Type = "LIST"      // list or search history
	TypeGet       Type = "GET"       // fetch one item with full payload
	TypeSelect    Type = "SELECT"    // put an item back on the clipboard
	TypeDelete    Type = "DELETE"    // delete one item
	TypeClear     Type = "CLEAR"     // delete everything
	TypeStatus    Type = "STATUS"    // daemon liveness and counters
	TypeSubscribe Type = "SUBSCRIBE" // stream history-change events
)

// Request is the client-to-daemon envelope.
type Request struct {
	Type Type `json:"type"`

	// LIST
	Query string `json:"query,omitempty"`
	Limit int    `json:"limit,omitempty"`

	// GET / SELECT / DELETE
	ID int64 `json:"id,omitempty"`
}

// Item is the wire form of a history entry. Data carries the
// base64-encoded image payload and is only populated on GET.
type Item struct {
	ID         int64     `json:"id"`
	Type       string    `json:"type"`
	Source     string    `json:"source"`
	Label      string    `json:"label"`
	Text       string    `json:"text,omitempty"`
	URIs       []string  `json:"uris,omitempty"`
	Data       string    `json:"data,omitempty"` // base64-encoded
	Width      int       `json:"width,omitempty"`
	Height     int       `json:"height,omitempty"`
	Digest     string    `json:"digest"`
	CapturedAt time.Time `json:"captured_at"`
}

// Response is the daemon-to-client envelope.
type Response struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`

	// LIST / GET
	Items []Item `json:"items,omitempty"`

	// STATUS
	Count   int    `json:"count,omitempty"`
	DBPath  string `json:"db_path,omitempty"`
	Backend string `json:"backend,omitempty"`
	Hidden  bool   `json:"hidden,omitempty"`
	Version string `json:"version,omitempty"`
}

// History-change event names.
const (
	EventItemAdded   = "item-added"
	EventItemRemoved = "item-removed"
	EventCleared     = "cleared"
)

// Event is pushed to a subscribed connection whenever the history
// changes. After a SUBSCRIBE request is acknowledged, the daemon writes
// one Event line per change until the client disconnects; presentation
// layers use the stream to refresh their item lists.
type Event struct {
	Name string `json:"event"`
	Item *Item  `json:"item,omitempty"` // item-added
	ID   int64  `json:"id,omitempty"`   // item-removed
}

// typeNames holds the item.Type wire names, indexed by the enum value.
var typeNames = [...]string{"text", "image", "files"}

// FromItem converts a history item to its wire form. Image bytes are
// included only when withPayload is set.
func FromItem(it *item.Item, withPayload bool) Item {
	w := Item{
		ID:         it.ID,
		Type:       typeNames[it.Type],
		Source:     it.Source.String(),
		Label:      it.Label,
		Text:       it.Text,
		URIs:       it.URIs,
		Width:      it.Width,
		Height:     it.Height,
		Digest:     it.Digest,
		CapturedAt: it.CapturedAt,
	}
	if withPayload && len(it.Image) > 0 {
		w.Data = base64.StdEncoding.EncodeToString(it.Image)
	}
	return w
}

// Decode returns the raw image bytes of the wire item payload.
func (w Item) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(w.Data)
}

// Encode serialises a message to JSON without a trailing newline.
func (r *Request) Encode() ([]byte, error)  { return json.Marshal(r) }
func (r *Response) Encode() ([]byte, error) { return json.Marshal(r) }
func (e *Event) Encode() ([]byte, error)    { return json.Marshal(e) }

// DecodeRequest deserialises a request from one wire line.
func DecodeRequest(b []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("request decode: %w", err)
	}
	return &r, nil
}

// DecodeResponse deserialises a response from one wire line.
func DecodeResponse(b []byte) (*Response, error) {
	var r Response
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("response decode: %w", err)
	}
	return &r, nil
}

// DecodeEvent deserialises a pushed event from one wire line.
func DecodeEvent(b []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("event decode: %w", err)
	}
	return &e, nil
}

// Errorf builds a failure response.
func Errorf(format string, args ...any) *Response {
	return &Response{Error: fmt.Sprintf(format, args...)}
}
