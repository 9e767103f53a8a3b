package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/driftstore/driftstore/pkg/types"
)

// manifestEntry records where one key's committed value lives.
type manifestEntry struct {
	Hash string `json:"hash"`
	Size uint64 `json:"size"`
}

// snapshotDoc is the persisted form of one snapshot.
type snapshotDoc struct {
	ID        types.SnapshotID         `json:"id"`
	Parent    types.SnapshotID         `json:"parent,omitempty"`
	Message   string                   `json:"message"`
	Committed time.Time                `json:"committed"`
	Manifest  map[string]manifestEntry `json:"manifest"`
}

// refDoc is the persisted form of a branch or tag pointer.
type refDoc struct {
	Snapshot types.SnapshotID `json:"snapshot"`
}

func snapshotKey(id types.SnapshotID) string { return "snapshots/" + string(id) }
func branchRefKey(name string) string        { return "refs/branches/" + name }
func tagRefKey(name string) string           { return "refs/tags/" + name }

// snapshotID derives a snapshot's identity from its content: parent, message,
// commit time, and manifest.
func snapshotID(doc snapshotDoc) types.SnapshotID {
	unnamed := doc
	unnamed.ID = ""
	payload, err := json.Marshal(unnamed)
	if err != nil {
		// Every field of snapshotDoc marshals; reaching this is a bug.
		panic(fmt.Sprintf("marshaling snapshot: %v", err))
	}
	return types.SnapshotID(hashValue(payload)[:32])
}

func (s *Store) readSnapshot(ctx context.Context, id types.SnapshotID) (snapshotDoc, error) {
	data, err := s.objects.GetObject(ctx, snapshotKey(id))
	if err != nil {
		if types.IsNotFound(err) {
			return snapshotDoc{}, fmt.Errorf("snapshot %s does not exist", id)
		}
		return snapshotDoc{}, err
	}
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return snapshotDoc{}, fmt.Errorf("snapshot %s is corrupt: %w", id, err)
	}
	if doc.Manifest == nil {
		doc.Manifest = make(map[string]manifestEntry)
	}
	return doc, nil
}

func (s *Store) writeSnapshot(ctx context.Context, doc snapshotDoc) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return s.objects.PutObject(ctx, snapshotKey(doc.ID), data)
}

func (s *Store) readRef(ctx context.Context, refKey string) (types.SnapshotID, error) {
	data, err := s.objects.GetObject(ctx, refKey)
	if err != nil {
		return "", err
	}
	var ref refDoc
	if err := json.Unmarshal(data, &ref); err != nil {
		return "", fmt.Errorf("ref %s is corrupt: %w", refKey, err)
	}
	return ref.Snapshot, nil
}

func (s *Store) writeRef(ctx context.Context, refKey string, id types.SnapshotID) error {
	data, err := json.Marshal(refDoc{Snapshot: id})
	if err != nil {
		return fmt.Errorf("marshaling ref: %w", err)
	}
	return s.objects.PutObject(ctx, refKey, data)
}

func (s *Store) refExists(ctx context.Context, refKey string) (bool, error) {
	_, err := s.objects.HeadObject(ctx, refKey)
	if err == nil {
		return true, nil
	}
	if types.IsNotFound(err) {
		return false, nil
	}
	return false, err
}
