package redis

import "testing"

func TestBridgeIgnoresOwnMessages(t *testing.T) {
	a := NewCatalogRefreshBridge(nil)
	b := NewCatalogRefreshBridge(nil)

	if a.Origin() == b.Origin() {
		t.Fatalf("instances must get distinct origins")
	}
	if a.shouldDeliver(a.Origin()) {
		t.Fatalf("own message delivered")
	}
	if !a.shouldDeliver(b.Origin()) {
		t.Fatalf("remote message dropped")
	}
}
