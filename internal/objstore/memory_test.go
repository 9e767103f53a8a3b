package objstore

import (
	"bytes"
	"context"
	"testing"

	"github.com/driftstore/driftstore/pkg/types"
)

func TestMemoryRoundTrip(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.PutObject(ctx, "objects/abc", []byte("payload")); err != nil {
		t.Fatalf("PutObject: %v", err)
	}
	data, err := store.GetObject(ctx, "objects/abc")
	if err != nil {
		t.Fatalf("GetObject: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("GetObject = %q", data)
	}

	if _, err := store.GetObject(ctx, "missing"); !types.IsNotFound(err) {
		t.Errorf("missing key: got %v, want NotFoundError", err)
	}
	if err := store.DeleteObject(ctx, "missing"); !types.IsNotFound(err) {
		t.Errorf("deleting missing key: got %v, want NotFoundError", err)
	}
}

func TestMemoryDefensiveCopies(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	src := []byte("original")
	if err := store.PutObject(ctx, "k", src); err != nil {
		t.Fatal(err)
	}
	src[0] = 'X'

	data, err := store.GetObject(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "original" {
		t.Errorf("stored bytes aliased the caller's slice: %q", data)
	}

	data[0] = 'Y'
	again, err := store.GetObject(ctx, "k")
	if err != nil {
		t.Fatal(err)
	}
	if string(again) != "original" {
		t.Errorf("returned bytes aliased the stored slice: %q", again)
	}
}

func TestMemoryListObjects(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	for _, k := range []string{"refs/branches/main", "objects/b", "objects/a", "snapshots/s1"} {
		if err := store.PutObject(ctx, k, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	keys, err := store.ListObjects(ctx, "objects/")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	want := []string{"objects/a", "objects/b"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestMemoryHeadObject(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.PutObject(ctx, "k", []byte("12345")); err != nil {
		t.Fatal(err)
	}
	info, err := store.HeadObject(ctx, "k")
	if err != nil {
		t.Fatalf("HeadObject: %v", err)
	}
	if info.Key != "k" || info.Size != 5 {
		t.Errorf("info = %+v", info)
	}
	if info.ETag == "" || info.LastModified.IsZero() {
		t.Errorf("missing metadata: %+v", info)
	}

	if _, err := store.HeadObject(ctx, "missing"); !types.IsNotFound(err) {
		t.Errorf("missing key: got %v, want NotFoundError", err)
	}
}

func TestApplyRange(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}

	tests := []struct {
		name    string
		rng     types.BackendRange
		want    []byte
		wantErr bool
	}{
		{"entire", types.EntireObject, data, false},
		{"from", types.RangeFrom(5), []byte{5, 6, 7}, false},
		{"from zero", types.RangeFrom(0), data, false},
		{"window", types.RangeFromLength(2, 3), []byte{2, 3, 4}, false},
		{"window past end truncates", types.RangeFromLength(6, 10), []byte{6, 7}, false},
		{"zero length", types.RangeFromLength(3, 0), []byte{}, false},
		{"zero value is an empty window", types.BackendRange{}, []byte{}, false},
		{"suffix", types.SuffixLength(3), []byte{5, 6, 7}, false},
		{"suffix longer than object", types.SuffixLength(100), data, false},
		{"offset at end", types.RangeFrom(8), nil, true},
		{"offset past end", types.RangeFromLength(9, 1), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ApplyRange(data, tt.rng)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ApplyRange(%v) succeeded with %v", tt.rng, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyRange(%v): %v", tt.rng, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("ApplyRange(%v) = %v, want %v", tt.rng, got, tt.want)
			}
		})
	}
}

func TestApplyRangeEmptyObject(t *testing.T) {
	got, err := ApplyRange(nil, types.EntireObject)
	if err != nil || len(got) != 0 {
		t.Errorf("entire range of empty object: %v, %v", got, err)
	}
	got, err = ApplyRange(nil, types.SuffixLength(4))
	if err != nil || len(got) != 0 {
		t.Errorf("suffix of empty object: %v, %v", got, err)
	}
}
