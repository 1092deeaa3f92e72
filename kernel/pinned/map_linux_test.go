//go:build linux

package pinned

import "testing"

func TestMap(t *testing.T) {
	b, err := Map(2 * PageSize)
	if err != nil {
		t.Skipf("locked mappings unavailable: %v", err)
	}
	defer func() {
		if err := Unmap(b); err != nil {
			t.Error(err)
		}
	}()

	if !b.IsAligned(PageSize) {
		t.Fatalf("expected mapping at %#x to be page aligned", b.Addr())
	}

	buf := b.Bytes()
	buf[0], buf[len(buf)-1] = 1, 2
	if buf[0] != 1 || buf[2*PageSize-1] != 2 {
		t.Fatal("expected mapping to be writable")
	}

	if err := Unmap(At(0x1000, PageSize)); err != nil {
		t.Fatalf("expected Unmap of an unmanaged region to be a no-op; got %v", err)
	}
}
