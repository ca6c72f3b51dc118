package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shokenlabs/voucher-analyzer/internal/voucher"
)

func sampleResult(filename string) *voucher.VoucherAnalysisResult {
	result := voucher.NewVoucherAnalysisResult()
	result.SourceFilename = filename
	result.Validation.Register("title", voucher.RequirementStatus{Status: voucher.RequirementPass})
	return result
}

func TestMemoryStoreSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if err := s.Save(ctx, "session-1", sampleResult("a.pdf")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := s.Load(ctx, "session-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.SourceFilename != "a.pdf" {
		t.Errorf("expected a.pdf, got %s", loaded.SourceFilename)
	}
	if loaded.Validation.OverallStatus != voucher.OutcomePass {
		t.Errorf("validation state lost in round trip: %v", loaded.Validation.OverallStatus)
	}
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryStore()
	_, err := s.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Save(ctx, "session-1", sampleResult("a.pdf"))
	if err := s.Delete(ctx, "session-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := s.Load(ctx, "session-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}

	// deleting an unknown key is not an error
	if err := s.Delete(ctx, "never-existed"); err != nil {
		t.Errorf("Delete of unknown key failed: %v", err)
	}
}

func TestMemoryStoreClearAndKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_ = s.Save(ctx, "b", sampleResult("b.pdf"))
	_ = s.Save(ctx, "a", sampleResult("a.pdf"))
	_ = s.Save(ctx, "c", sampleResult("c.pdf"))

	keys, err := s.Keys(ctx)
	if err != nil {
		t.Fatalf("Keys failed: %v", err)
	}
	if len(keys) != 3 || keys[0] != "a" || keys[1] != "b" || keys[2] != "c" {
		t.Errorf("expected sorted keys [a b c], got %v", keys)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	keys, _ = s.Keys(ctx)
	if len(keys) != 0 {
		t.Errorf("expected no keys after clear, got %v", keys)
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = s.Save(ctx, "shared", sampleResult("x.pdf"))
		}
	}()
	for i := 0; i < 100; i++ {
		_, _ = s.Load(ctx, "shared")
		_, _ = s.Keys(ctx)
	}
	<-done
}
