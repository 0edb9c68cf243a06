package api

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Page is the paginated list envelope used by the remote API when
// pagination is enabled for a collection.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// List decodes a collection answered either as a bare JSON array or as a
// Page envelope; only the items of the first page are kept.
type List[T any] []T

func (l *List[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case len(data) > 0 && data[0] == '[':
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	case len(data) > 0 && data[0] == '{':
		var page Page[T]
		if err := json.Unmarshal(data, &page); err != nil {
			return err
		}
		*l = page.Results
		return nil
	default:
		return errors.New("api: list is neither an array nor a page")
	}
}
