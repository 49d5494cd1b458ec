package cache

import (
	"fmt"
	"sync"
	"testing"

	"filewarden/pkg/models"
)

func testHash(n int) models.FileHash {
	return models.FileHash{
		MD5:    fmt.Sprintf("%032d", n),
		SHA256: fmt.Sprintf("%064d", n),
	}
}

func TestCleanCache_LookupAfterRecord(t *testing.T) {
	c := New()
	h := testHash(1)

	if c.Lookup(h, "v1") {
		t.Fatal("empty cache reported a hit")
	}

	c.Record(h, "v1")

	if !c.Lookup(h, "v1") {
		t.Fatal("recorded entry not found under its version")
	}
}

func TestCleanCache_VersionGuard(t *testing.T) {
	c := New()
	h := testHash(2)

	c.Record(h, "v1")

	if c.Lookup(h, "v2") {
		t.Error("entry recorded under v1 returned for v2")
	}

	// Re-recording under the new version supersedes the old entry
	c.Record(h, "v2")
	if !c.Lookup(h, "v2") {
		t.Error("entry not found after re-record under v2")
	}
	if c.Lookup(h, "v1") {
		t.Error("stale v1 entry still valid after v2 re-record")
	}
}

func TestCleanCache_Invalidate(t *testing.T) {
	c := New()
	for i := 0; i < 10; i++ {
		c.Record(testHash(i), "v1")
	}

	if c.Len() != 10 {
		t.Fatalf("Len() = %d, want 10", c.Len())
	}

	c.Invalidate()

	if c.Len() != 0 {
		t.Errorf("Len() after Invalidate = %d, want 0", c.Len())
	}
	if c.Lookup(testHash(3), "v1") {
		t.Error("hit after wholesale invalidation")
	}
}

func TestCleanCache_ConcurrentAccess(t *testing.T) {
	c := New()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				h := testHash(i % 50)
				c.Record(h, "v1")
				c.Lookup(h, "v1")
			}
		}(w)
	}
	wg.Wait()

	if c.Len() != 50 {
		t.Errorf("Len() = %d, want 50 distinct entries", c.Len())
	}
}
