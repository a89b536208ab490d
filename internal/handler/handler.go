package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/UltraSive/garage/internal/garage"
	"github.com/UltraSive/garage/internal/upstream"
)

type Request struct {
	Type  string                     `json:"type"`
	Keys  []string                   `json:"keys,omitempty"`
	Items map[string]json.RawMessage `json:"items,omitempty"`
	Days  interface{}                `json:"days,omitempty"`
}

type Response struct {
	Type  string                 `json:"type"`
	Error string                 `json:"error,omitempty"`
	Data  map[string]interface{} `json:"data,omitempty"`
}

type Handler struct {
	Garage   *garage.Garage
	Upstream *upstream.Client // nil if none
	Now      func() time.Time
}

func New(g *garage.Garage, up *upstream.Client) *Handler {
	return &Handler{Garage: g, Upstream: up, Now: time.Now}
}

func errResponse(err error) Response {
	return Response{Type: "ERR", Error: err.Error()}
}

func (h *Handler) Serve(req Request) Response {
	switch req.Type {
	case "GET":
		res := make(map[string]interface{})
		for _, k := range req.Keys {
			v, ok, err := h.Garage.Get(k)
			if err != nil {
				return errResponse(err)
			}
			if ok {
				res[k] = v
				continue
			}
			// miss -> ask upstream if configured
			if h.Upstream != nil {
				v, found, err := h.Upstream.Fetch(k)
				if err != nil {
					return errResponse(err)
				}
				if found {
					if err := h.Garage.Add(k, v); err != nil {
						return errResponse(err)
					}
					res[k] = v
					continue
				}
			}
			res[k] = nil
		}
		return Response{Type: "OK", Data: res}

	case "GET_JSON":
		res := make(map[string]interface{})
		for _, k := range req.Keys {
			v, err := h.Garage.GetJSON(k)
			if err != nil {
				return errResponse(err)
			}
			res[k] = v
		}
		return Response{Type: "OK", Data: res}

	case "LIST":
		all, err := h.Garage.Facade().List()
		if err != nil {
			return errResponse(err)
		}
		res := make(map[string]interface{}, len(all))
		for k, v := range all {
			if k == h.Garage.IndexKey() {
				continue
			}
			res[k] = v
		}
		return Response{Type: "OK", Data: res}

	case "INDEX":
		res := make(map[string]interface{})
		for k, ts := range h.Garage.Index() {
			res[k] = ts
		}
		return Response{Type: "OK", Data: res}

	case "ADD", "UPDATE":
		for _, k := range sortedKeys(req.Items) {
			raw := req.Items[k]
			if req.Type == "UPDATE" && isNull(raw) {
				if err := h.Garage.Remove(k); err != nil {
					return errResponse(err)
				}
				continue
			}
			v, err := itemValue(raw)
			if err != nil {
				return errResponse(fmt.Errorf("item %q: %w", k, err))
			}
			if err := h.Garage.Add(k, v); err != nil {
				return errResponse(err)
			}
		}
		return Response{Type: "OK"}

	case "REMOVE":
		for _, k := range req.Keys {
			if err := h.Garage.Remove(k); err != nil {
				return errResponse(err)
			}
		}
		return Response{Type: "OK"}

	case "CLEAR":
		if err := h.Garage.Clear(); err != nil {
			return errResponse(err)
		}
		return Response{Type: "OK"}

	case "CLEAN":
		if err := h.Garage.Clean(); err != nil {
			return errResponse(err)
		}
		return Response{Type: "OK"}

	case "EXPIRE":
		removed, err := h.Garage.Expire(h.Now())
		if err != nil {
			return errResponse(err)
		}
		if removed == nil {
			removed = []string{}
		}
		return Response{Type: "OK", Data: map[string]interface{}{"removed": removed}}

	case "BLACKLIST":
		return Response{Type: "OK", Data: map[string]interface{}{"keys": h.Garage.Blacklist()}}

	case "BLACKLIST_SET":
		h.Garage.SetBlacklist(req.Keys)
		return Response{Type: "OK"}

	case "BLACKLIST_ADD":
		if len(req.Keys) == 0 {
			return Response{Type: "ERR", Error: "keys required"}
		}
		h.Garage.AddToBlacklist(req.Keys...)
		return Response{Type: "OK"}

	case "SET_EXPIRATION":
		if err := h.Garage.SetExpirationDays(req.Days); err != nil {
			return errResponse(err)
		}
		return Response{Type: "OK", Data: map[string]interface{}{"days": h.Garage.ExpirationDays()}}

	default:
		return Response{Type: "ERR", Error: "unknown type"}
	}
}

// itemValue turns a JSON string into its text and leaves any other JSON
// value as raw JSON, so strings are stored unquoted.
func itemValue(raw json.RawMessage) (interface{}, error) {
	if !json.Valid(raw) {
		return nil, fmt.Errorf("invalid json")
	}
	t := bytes.TrimSpace(raw)
	if t[0] != '"' {
		return json.RawMessage(t), nil
	}
	var s string
	if err := json.Unmarshal(t, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
