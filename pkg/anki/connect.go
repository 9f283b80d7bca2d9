package anki

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Version of the AnkiConnect protocol spoken by Client.
const Version = 6

const DefaultModelName = "Basic"

type Fields struct {
	Front string `json:"Front"`
	Back  string `json:"Back"`
}

type Note struct {
	DeckName  string   `json:"deckName"`
	ModelName string   `json:"modelName"`
	Fields    Fields   `json:"fields"`
	Tags      []string `json:"tags"`
}

// NewNote builds a note for the front/back model. Whitespace inside tags is
// replaced by underscores since Anki splits tags on spaces.
func NewNote(deck, model string, card Card, tags ...string) Note {
	if model == "" {
		model = DefaultModelName
	}
	clean := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), "_")
		if tag != "" {
			clean = append(clean, tag)
		}
	}
	return Note{
		DeckName:  deck,
		ModelName: model,
		Fields:    Fields{Front: card.Question, Back: card.Answer},
		Tags:      clean,
	}
}

type request struct {
	Action  string      `json:"action"`
	Version int         `json:"version"`
	Params  interface{} `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
}

// Client talks to the AnkiConnect HTTP endpoint.
type Client struct {
	URL    string
	Client *http.Client
}

func NewClient(url string) *Client {
	return &Client{
		URL: url,
		Client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// AddNotes adds notes one request at a time. The first failing note aborts
// the batch; notes added before it stay in Anki and their ids are returned
// with the error.
func (c *Client) AddNotes(ctx context.Context, notes []Note) ([]int64, error) {
	ids := make([]int64, 0, len(notes))
	for i, note := range notes {
		var id int64
		if err := c.invoke(ctx, "addNote", map[string]interface{}{"note": note}, &id); err != nil {
			return ids, fmt.Errorf("add note %d of %d: %w", i+1, len(notes), err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// CreateDeck creates name if it does not exist yet.
func (c *Client) CreateDeck(ctx context.Context, name string) (int64, error) {
	var id int64
	if err := c.invoke(ctx, "createDeck", map[string]interface{}{"deck": name}, &id); err != nil {
		return 0, fmt.Errorf("create deck %q: %w", name, err)
	}
	return id, nil
}

// Version reports the protocol version of the running add-on.
func (c *Client) Version(ctx context.Context) (int, error) {
	var v int
	if err := c.invoke(ctx, "version", nil, &v); err != nil {
		return 0, err
	}
	return v, nil
}

func (c *Client) invoke(ctx context.Context, action string, params interface{}, result interface{}) error {
	payload, err := json.Marshal(request{Action: action, Version: Version, Params: params})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("anki connect request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("anki connect error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if out.Error != nil {
		return &RemoteError{Action: action, Message: *out.Error}
	}
	if result != nil && len(out.Result) > 0 && string(out.Result) != "null" {
		if err := json.Unmarshal(out.Result, result); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", action, err)
		}
	}
	return nil
}

// RemoteError is an error reported by AnkiConnect itself, such as a
// duplicate note or an unknown deck.
type RemoteError struct {
	Action  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("anki connect %s: %s", e.Action, e.Message)
}
