package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/agroai/crop-engine/internal/domain"
)

func TestCacheSessionRoundTrip(t *testing.T) {
	cache := NewCache(NewMemoryKV())
	ctx := context.Background()

	if _, ok, err := cache.Session(ctx); ok || err != nil {
		t.Fatalf("expected empty cache, ok=%v err=%v", ok, err)
	}

	sess := domain.Session{Token: "tok", AccountID: "acct"}
	if err := cache.SetSession(ctx, sess); err != nil {
		t.Fatalf("set session: %v", err)
	}
	got, ok, err := cache.Session(ctx)
	if err != nil || !ok {
		t.Fatalf("expected session, ok=%v err=%v", ok, err)
	}
	if got != sess {
		t.Fatalf("expected %+v, got %+v", sess, got)
	}

	if err := cache.ClearSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	if _, ok, _ := cache.Session(ctx); ok {
		t.Fatal("expected session to be gone")
	}
}

func TestCacheAccountSnapshot(t *testing.T) {
	cache := NewCache(NewMemoryKV())
	ctx := context.Background()

	account := &domain.Account{
		ID:    "acct",
		Email: "farmer@example.com",
		Crops: []domain.Crop{{
			CropTypeName: "Rice",
			Location:     &domain.Location{Latitude: 26.85, Longitude: 80.94},
			CreatedAt:    time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC),
		}},
	}
	if err := cache.SetAccount(ctx, account); err != nil {
		t.Fatalf("set account: %v", err)
	}
	got, ok, err := cache.Account(ctx)
	if err != nil || !ok {
		t.Fatalf("expected account, ok=%v err=%v", ok, err)
	}
	if got.ID != account.ID || len(got.Crops) != 1 || got.Crops[0].CropTypeName != "Rice" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

// A snapshot that no longer parses is stale state, not corruption to crash on.
func TestCacheMalformedValueReadsAsAbsent(t *testing.T) {
	kv := NewMemoryKV()
	cache := NewCache(kv)
	ctx := context.Background()

	if err := kv.Set(ctx, KeyAccount, "{not json"); err != nil {
		t.Fatalf("set raw: %v", err)
	}
	_, ok, err := cache.Account(ctx)
	if err != nil {
		t.Fatalf("expected no error for malformed snapshot, got %v", err)
	}
	if ok {
		t.Fatal("expected malformed snapshot to read as absent")
	}
}

func TestCacheLocation(t *testing.T) {
	kv := NewMemoryKV()
	cache := NewCache(kv)
	ctx := context.Background()

	loc := domain.Location{Latitude: 18.5204, Longitude: 73.8567}
	if err := cache.SetLocation(ctx, loc); err != nil {
		t.Fatalf("set location: %v", err)
	}
	got, ok, err := cache.Location(ctx)
	if err != nil || !ok {
		t.Fatalf("expected location, ok=%v err=%v", ok, err)
	}
	if got != loc {
		t.Fatalf("expected %+v, got %+v", loc, got)
	}

	t.Run("malformed value reads as absent", func(t *testing.T) {
		if err := kv.Set(ctx, KeyLocation, "not-a-pair"); err != nil {
			t.Fatalf("set raw: %v", err)
		}
		if _, ok, err := cache.Location(ctx); ok || err != nil {
			t.Fatalf("expected absent location, ok=%v err=%v", ok, err)
		}
	})
}

func TestCatalogRecordLookup(t *testing.T) {
	record := CatalogRecord{
		Version: 1,
		Crops: []domain.CropType{
			{Name: "Wheat", HarvestDurationDays: 100, IrrigationFrequencyDays: 14},
		},
	}
	if _, ok := record.Lookup("Wheat"); !ok {
		t.Fatal("expected Wheat to be found")
	}
	if _, ok := record.Lookup("wheat"); ok {
		t.Fatal("expected lookup to be case-sensitive")
	}
	if _, ok := record.Lookup("Barley"); ok {
		t.Fatal("expected Barley to be absent")
	}
}

func TestSQLiteKV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	kv, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	if _, ok, err := kv.Get(ctx, "session"); ok || err != nil {
		t.Fatalf("expected empty store, ok=%v err=%v", ok, err)
	}
	if err := kv.Set(ctx, "session", "one"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := kv.Set(ctx, "session", "two"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	value, ok, err := kv.Get(ctx, "session")
	if err != nil || !ok {
		t.Fatalf("expected value, ok=%v err=%v", ok, err)
	}
	if value != "two" {
		t.Fatalf("expected upserted value, got %q", value)
	}

	// Reopen to confirm durability.
	reopened, err := OpenSQLiteKV(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	value, ok, err = reopened.Get(ctx, "session")
	if err != nil || !ok || value != "two" {
		t.Fatalf("expected durable value, got %q ok=%v err=%v", value, ok, err)
	}

	if err := reopened.Delete(ctx, "session"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := reopened.Get(ctx, "session"); ok {
		t.Fatal("expected key to be deleted")
	}
	if err := reopened.Delete(ctx, "session"); err != nil {
		t.Fatalf("expected deleting absent key to be a no-op, got %v", err)
	}
}
