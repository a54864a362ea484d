package store

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
)

// Store is a key/value namespace holding JSON-encodable values.
type Store interface {
	// Get decodes the value stored under key into dst. It reports false with
	// a nil error when the key is absent.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Namespaces groups the three stores the shed engine works against.
type Namespaces struct {
	Story   Store // durable: config, slough
	History Store // durable: skins
	Temp    Store // transient: prefill for panel controls
}

func encode(value any) (json.RawMessage, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, errors.Wrap(err, "encode value")
	}
	return data, nil
}

func decode(raw json.RawMessage, key string, dst any) error {
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.Wrapf(err, "decode %s", key)
	}
	return nil
}
