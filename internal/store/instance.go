package store

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"time"

	"github.com/bookwormapp/bookworm-server/internal/domain"
	"github.com/bookwormapp/bookworm-server/internal/id"
)

// LoadOrCreateInstance returns the persisted server instance record, creating
// one on first boot.
func LoadOrCreateInstance(blobs Blobs, name, version string) (*domain.Instance, error) {
	data, err := blobs.Get(BlobInstance)
	if err == nil {
		var inst domain.Instance
		if err := json.Unmarshal(data, &inst); err == nil {
			// Name and version follow the current config/build.
			inst.Name = name
			inst.Version = version
			return &inst, nil
		}
		// Unreadable instance blob: fall through and mint a new identity.
	} else if !errors.Is(err, ErrBlobNotFound) {
		return nil, fmt.Errorf("read instance: %w", err)
	}

	inst := &domain.Instance{
		ID:        id.MustGenerate("srv"),
		Name:      name,
		Version:   version,
		CreatedAt: time.Now(),
	}

	data, err = json.Marshal(inst)
	if err != nil {
		return nil, fmt.Errorf("marshal instance: %w", err)
	}
	if err := blobs.Set(BlobInstance, data); err != nil {
		return nil, fmt.Errorf("persist instance: %w", err)
	}
	return inst, nil
}
