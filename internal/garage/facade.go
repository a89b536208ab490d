package garage

import (
	"encoding/json"
	"fmt"

	"github.com/UltraSive/garage/internal/datastore"
)

// Facade passes operations straight through to a datastore. It keeps no
// state of its own and does not touch the index.
type Facade struct {
	ds datastore.Datastore
}

func NewFacade(ds datastore.Datastore) *Facade {
	return &Facade{ds: ds}
}

// Set stores strings and byte slices as-is and JSON-encodes everything else.
func (f *Facade) Set(key string, value any) error {
	text, err := encodeValue(value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return f.ds.Put(key, text)
}

func (f *Facade) Get(key string) (string, bool, error) {
	return f.ds.Get(key)
}

// GetJSON decodes the stored value into a generic JSON value.
func (f *Facade) GetJSON(key string) (any, error) {
	var v any
	if err := f.DecodeJSON(key, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeJSON decodes the stored value into out. An absent key is a ParseError
// wrapping ErrNotFound.
func (f *Facade) DecodeJSON(key string, out any) error {
	raw, ok, err := f.ds.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return &ParseError{Key: key, Err: ErrNotFound}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &ParseError{Key: key, Err: err}
	}
	return nil
}

func (f *Facade) Remove(key string) error {
	return f.ds.Delete(key)
}

func (f *Facade) Clear() error {
	return f.ds.Clear()
}

func (f *Facade) List() (map[string]string, error) {
	return f.ds.List()
}

func encodeValue(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
