package util

import "testing"

func TestHashClientKey(t *testing.T) {
	id := "ip:10.0.0.1"
	got := HashClientKey(id)
	if got != HashClientKey(id) {
		t.Fatalf("expected stable hash, got %s", got)
	}
	for _, ch := range got {
		if !((ch >= 'a' && ch <= 'f') || (ch >= '0' && ch <= '9')) {
			t.Fatalf("hash contains non-hex character: %c", ch)
		}
	}
	if len(got) != 64 {
		t.Fatalf("expected 64 hex characters, got %d", len(got))
	}
	if got == HashClientKey("ip:10.0.0.2") {
		t.Fatalf("expected distinct hashes for distinct clients")
	}
}
