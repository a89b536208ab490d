package upstream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client reads missing keys from another garage server.
type Client struct {
	URL    string
	Client *http.Client
}

func New(url string, timeout time.Duration) *Client {
	return &Client{
		URL: url,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

type Request struct {
	Type string   `json:"type"`
	Keys []string `json:"keys,omitempty"`
}

type Response struct {
	Type  string                 `json:"type"`
	Data  map[string]interface{} `json:"data,omitempty"`
	Error string                 `json:"error,omitempty"`
}

// Fetch returns the raw stored string for key. A nil client, a 404 and a
// null value all report found == false without an error.
func (c *Client) Fetch(key string) (string, bool, error) {
	if c == nil || c.URL == "" {
		return "", false, nil
	}
	b, err := json.Marshal(&Request{Type: "GET", Keys: []string{key}})
	if err != nil {
		return "", false, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, c.URL, bytes.NewReader(b))
	if err != nil {
		return "", false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.Client.Do(httpReq)
	if err != nil {
		return "", false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", false, nil
	case resp.StatusCode != http.StatusOK:
		return "", false, fmt.Errorf("upstream %s: status %d", c.URL, resp.StatusCode)
	}

	var r Response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", false, fmt.Errorf("decode upstream response: %w", err)
	}
	if r.Type == "ERR" {
		return "", false, fmt.Errorf("upstream: %s", r.Error)
	}
	switch v := r.Data[key].(type) {
	case nil:
		return "", false, nil
	case string:
		return v, true, nil
	default:
		// older servers decode values before replying
		raw, err := json.Marshal(v)
		if err != nil {
			return "", false, err
		}
		return string(raw), true, nil
	}
}
