package backend

import (
	"context"
	"testing"

	"github.com/driftstore/driftstore/internal/objstore"
	"github.com/driftstore/driftstore/pkg/types"
)

func openTestStore(t *testing.T) (*Store, objstore.ObjectStore) {
	t.Helper()
	objects := objstore.NewMemory()
	store, err := Open(context.Background(), objects)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return store, objects
}

func TestStagingVisibility(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	data, err := store.Get(ctx, "k", types.EntireObject)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "v" {
		t.Errorf("Get = %q, want %q", data, "v")
	}

	if _, err := store.Get(ctx, "missing", types.EntireObject); !types.IsNotFound(err) {
		t.Errorf("missing key: got %v, want NotFoundError", err)
	}
}

func TestDeleteSemantics(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Delete(ctx, "missing"); !types.IsNotFound(err) {
		t.Errorf("deleting a missing key: got %v, want NotFoundError", err)
	}

	// A staged-only key disappears without leaving a tombstone.
	if err := store.Set(ctx, "staged", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "staged"); err != nil {
		t.Fatalf("Delete staged: %v", err)
	}
	if _, err := store.Get(ctx, "staged", types.EntireObject); !types.IsNotFound(err) {
		t.Errorf("deleted staged key still readable: %v", err)
	}

	// A committed key gets a tombstone that hides it until the next commit.
	if err := store.Set(ctx, "committed", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(ctx, "add"); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if err := store.Delete(ctx, "committed"); err != nil {
		t.Fatalf("Delete committed: %v", err)
	}
	if _, err := store.Get(ctx, "committed", types.EntireObject); !types.IsNotFound(err) {
		t.Errorf("tombstoned key still readable: %v", err)
	}
	dirty, err := store.HasUncommittedChanges(ctx)
	if err != nil || !dirty {
		t.Errorf("tombstone must count as an uncommitted change: dirty=%v err=%v", dirty, err)
	}
}

func TestGetPartialValuesBatchFailure(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "present", []byte{1, 2, 3, 4}); err != nil {
		t.Fatal(err)
	}

	// One missing key fails the whole batch, not just its own entry.
	_, err := store.GetPartialValues(ctx, []types.RangeRequest{
		{Key: "present", Range: types.EntireObject},
		{Key: "missing", Range: types.EntireObject},
	})
	if !types.IsNotFound(err) {
		t.Fatalf("batch with missing key: got %v, want NotFoundError", err)
	}

	results, err := store.GetPartialValues(ctx, []types.RangeRequest{
		{Key: "present", Range: types.RangeFromLength(0, 2)},
		{Key: "present", Range: types.SuffixLength(2)},
	})
	if err != nil {
		t.Fatalf("GetPartialValues: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if string(results[0].Data) != "\x01\x02" || string(results[1].Data) != "\x03\x04" {
		t.Errorf("results = %v, want [[1 2] [3 4]]", results)
	}
}

func TestCommitPersistsAcrossSessions(t *testing.T) {
	store, objects := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "group/zarr.json", []byte(`{}`)); err != nil {
		t.Fatal(err)
	}
	id, err := store.Commit(ctx, "init")
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	reopened, err := Open(ctx, objects)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	got, err := reopened.SnapshotID(ctx)
	if err != nil || got != id {
		t.Errorf("reopened snapshot = %v (err %v), want %v", got, err, id)
	}
	data, err := reopened.Get(ctx, "group/zarr.json", types.EntireObject)
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Get = %q", data)
	}
}

func TestCommitRequiresChanges(t *testing.T) {
	store, _ := openTestStore(t)
	if _, err := store.Commit(context.Background(), "empty"); err == nil {
		t.Error("commit with no changes succeeded")
	}
}

func TestIdenticalContentSharesBlobs(t *testing.T) {
	store, objects := openTestStore(t)
	ctx := context.Background()

	chunk := []byte("same bytes")
	if err := store.Set(ctx, "a", chunk); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "b", chunk); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(ctx, "dedup"); err != nil {
		t.Fatal(err)
	}

	blobs, err := objects.ListObjects(ctx, "objects/")
	if err != nil {
		t.Fatal(err)
	}
	if len(blobs) != 1 {
		t.Errorf("got %d blobs for identical content, want 1", len(blobs))
	}
}

func TestCheckoutBlockedByUncommittedChanges(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	id, err := store.Commit(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "k", []byte("v2")); err != nil {
		t.Fatal(err)
	}

	if err := store.Checkout(ctx, types.SnapshotRef(id)); err == nil {
		t.Error("checkout with uncommitted changes succeeded")
	}

	if err := store.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if err := store.Checkout(ctx, types.SnapshotRef(id)); err != nil {
		t.Errorf("checkout after reset: %v", err)
	}
}

func TestDetachedSessionRejectsWrites(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	id, err := store.Commit(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Checkout(ctx, types.SnapshotRef(id)); err != nil {
		t.Fatal(err)
	}

	supportsDeletes, err := store.SupportsDeletes(ctx)
	if err != nil || supportsDeletes {
		t.Errorf("detached session reports delete support: %v (err %v)", supportsDeletes, err)
	}
	if err := store.Set(ctx, "k", []byte("v2")); err == nil {
		t.Error("write on detached session succeeded")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Error("delete on detached session succeeded")
	}
	if _, err := store.Commit(ctx, "nope"); err == nil {
		t.Error("commit on detached session succeeded")
	}
}

func TestTagImmutability(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	id, err := store.Commit(ctx, "first")
	if err != nil {
		t.Fatal(err)
	}

	if err := store.Tag(ctx, "v1", id); err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if err := store.Tag(ctx, "v1", id); err == nil {
		t.Error("retagging an existing tag succeeded")
	}
	if err := store.Tag(ctx, "v2", "no-such-snapshot"); err == nil {
		t.Error("tagging a nonexistent snapshot succeeded")
	}
}

func TestNewBranchAtInitialSnapshot(t *testing.T) {
	store, objects := openTestStore(t)
	ctx := context.Background()

	// Branching before the first commit writes no ref; the branch
	// materializes with its first commit.
	if err := store.NewBranch(ctx, "dev"); err != nil {
		t.Fatalf("NewBranch: %v", err)
	}
	refs, err := objects.ListObjects(ctx, "refs/branches/")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 0 {
		t.Errorf("branch at initial snapshot wrote refs: %v", refs)
	}

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Commit(ctx, "first on dev"); err != nil {
		t.Fatal(err)
	}
	refs, err = objects.ListObjects(ctx, "refs/branches/")
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0] != "refs/branches/dev" {
		t.Errorf("refs after commit = %v", refs)
	}
}

func TestLogWalksHistory(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	messages := []string{"first", "second", "third"}
	for i, msg := range messages {
		if err := store.Set(ctx, "k", []byte{byte(i)}); err != nil {
			t.Fatal(err)
		}
		if _, err := store.Commit(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}

	history, err := store.Log(ctx)
	if err != nil {
		t.Fatalf("Log: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d entries, want 3", len(history))
	}
	// Newest first.
	for i, want := range []string{"third", "second", "first"} {
		if history[i].Message != want {
			t.Errorf("history[%d].Message = %q, want %q", i, history[i].Message, want)
		}
	}
	if history[2].Parent != "" {
		t.Errorf("root snapshot has parent %q", history[2].Parent)
	}
}

func TestListDirItemsOrder(t *testing.T) {
	store, _ := openTestStore(t)
	ctx := context.Background()

	for _, k := range []string{"zarr.json", "b/c", "b/d", "a/x"} {
		if err := store.Set(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	items, err := store.ListDirItems(ctx, "")
	if err != nil {
		t.Fatalf("ListDirItems: %v", err)
	}
	want := []types.DirItem{
		{Name: "zarr.json", Kind: types.DirItemKey},
		{Name: "a/", Kind: types.DirItemPrefix},
		{Name: "b/", Kind: types.DirItemPrefix},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d: %v", len(items), len(want), items)
	}
	for i := range want {
		if items[i] != want[i] {
			t.Errorf("items[%d] = %v, want %v", i, items[i], want[i])
		}
	}
}
