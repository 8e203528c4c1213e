// Package hotel exposes typed access to the hotel service resources on top of
// the authenticated request client.
package hotel

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/tyemirov/hoteldesk/pkg/apiclient"
)

// ErrInvalidRecord indicates a create or update body that does not decode into
// the collection's input shape.
var ErrInvalidRecord = errors.New("hotel.invalid_record")

// API is the subset of the request client used by resource collections.
type API interface {
	Get(ctx context.Context, path string) (*apiclient.Response, error)
	Post(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Patch(ctx context.Context, path string, body any) (*apiclient.Response, error)
	Delete(ctx context.Context, path string) (*apiclient.Response, error)
}

// Listing is a decoded collection listing.
type Listing[L any] struct {
	Items []L
	Count int
}

// Browser is the untyped view of a collection used by generic surfaces.
type Browser interface {
	Path() string
	ListKey() string
	ItemKey() string
	ListRecords(ctx context.Context) (any, int, error)
	GetRecord(ctx context.Context, id string) (any, error)
	CreateRecord(ctx context.Context, body []byte) error
	UpdateRecord(ctx context.Context, body []byte) error
	Delete(ctx context.Context, id string) error
}

// Collection reads and writes one REST resource. L is the listed shape, R the
// single-record shape and I the create/update body.
type Collection[L any, R any, I any] struct {
	api         API
	path        string
	listKey     string
	itemKey     string
	shapeListed func(*L)
	shapeRecord func(*R)
}

func newCollection[L any, R any, I any](api API, path string, listKey string, itemKey string) *Collection[L, R, I] {
	return &Collection[L, R, I]{
		api:     api,
		path:    path,
		listKey: listKey,
		itemKey: itemKey,
	}
}

// Path returns the resource path relative to the API base.
func (collection *Collection[L, R, I]) Path() string { return collection.path }

// ListKey returns the JSON key holding listed items.
func (collection *Collection[L, R, I]) ListKey() string { return collection.listKey }

// ItemKey returns the JSON key holding a single record.
func (collection *Collection[L, R, I]) ItemKey() string { return collection.itemKey }

// List fetches every record.
func (collection *Collection[L, R, I]) List(ctx context.Context) (Listing[L], error) {
	response, err := collection.api.Get(ctx, collection.path)
	if err != nil {
		return Listing[L]{}, err
	}
	var payload map[string]json.RawMessage
	if decodeErr := response.DecodeJSON(&payload); decodeErr != nil {
		return Listing[L]{}, fmt.Errorf("hotel.%s.list: %w", collection.path, decodeErr)
	}
	listing := Listing[L]{Items: []L{}}
	if raw, ok := payload[collection.listKey]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &listing.Items); err != nil {
			return Listing[L]{}, fmt.Errorf("hotel.%s.list: %w", collection.path, err)
		}
	}
	listing.Count = len(listing.Items)
	if raw, ok := payload["count"]; ok {
		var count int
		if err := json.Unmarshal(raw, &count); err == nil {
			listing.Count = count
		}
	}
	if collection.shapeListed != nil {
		for index := range listing.Items {
			collection.shapeListed(&listing.Items[index])
		}
	}
	return listing, nil
}

// Get fetches one record. An empty id yields the empty record without a call,
// which is what create forms start from.
func (collection *Collection[L, R, I]) Get(ctx context.Context, id string) (R, error) {
	var record R
	if strings.TrimSpace(id) == "" {
		return record, nil
	}
	response, err := collection.api.Get(ctx, collection.itemPath(id))
	if err != nil {
		return record, err
	}
	var payload map[string]json.RawMessage
	if decodeErr := response.DecodeJSON(&payload); decodeErr != nil {
		return record, fmt.Errorf("hotel.%s.get: %w", collection.path, decodeErr)
	}
	if raw, ok := payload[collection.itemKey]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &record); err != nil {
			return record, fmt.Errorf("hotel.%s.get: %w", collection.path, err)
		}
	}
	if collection.shapeRecord != nil {
		collection.shapeRecord(&record)
	}
	return record, nil
}

// Create posts a new record.
func (collection *Collection[L, R, I]) Create(ctx context.Context, input I) error {
	_, err := collection.api.Post(ctx, collection.path, input)
	return err
}

// Update patches the collection; the record id travels in the body.
func (collection *Collection[L, R, I]) Update(ctx context.Context, input I) error {
	_, err := collection.api.Patch(ctx, collection.path, input)
	return err
}

// Delete removes a record. An empty id does nothing.
func (collection *Collection[L, R, I]) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return nil
	}
	_, err := collection.api.Delete(ctx, collection.itemPath(id))
	return err
}

// ListRecords implements Browser.
func (collection *Collection[L, R, I]) ListRecords(ctx context.Context) (any, int, error) {
	listing, err := collection.List(ctx)
	if err != nil {
		return nil, 0, err
	}
	return listing.Items, listing.Count, nil
}

// GetRecord implements Browser.
func (collection *Collection[L, R, I]) GetRecord(ctx context.Context, id string) (any, error) {
	record, err := collection.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// CreateRecord implements Browser. body must decode into the input shape.
func (collection *Collection[L, R, I]) CreateRecord(ctx context.Context, body []byte) error {
	input, decodeErr := collection.decodeInput(body)
	if decodeErr != nil {
		return decodeErr
	}
	return collection.Create(ctx, input)
}

// UpdateRecord implements Browser.
func (collection *Collection[L, R, I]) UpdateRecord(ctx context.Context, body []byte) error {
	input, decodeErr := collection.decodeInput(body)
	if decodeErr != nil {
		return decodeErr
	}
	return collection.Update(ctx, input)
}

func (collection *Collection[L, R, I]) decodeInput(body []byte) (I, error) {
	var input I
	if len(bytes.TrimSpace(body)) == 0 {
		return input, fmt.Errorf("%w: empty body", ErrInvalidRecord)
	}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&input); err != nil {
		return input, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return input, nil
}

func (collection *Collection[L, R, I]) itemPath(id string) string {
	return collection.path + "/" + url.PathEscape(strings.TrimSpace(id))
}
