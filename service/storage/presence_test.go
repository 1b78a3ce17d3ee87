package storage

import "testing"

func TestOwnerValueRoundTrip(t *testing.T) {
	connID, node := splitOwner(ownerValue("123456", "relay_1"))
	if connID != "123456" || node != "relay_1" {
		t.Fatalf("splitOwner = (%q, %q), want (123456, relay_1)", connID, node)
	}
}

func TestSplitOwnerKeepsConnIDIntact(t *testing.T) {
	// connIDs are numeric today, but the split must not break if one ever
	// carries the separator itself
	connID, node := splitOwner(ownerValue("a@b", "relay_2"))
	if connID != "a@b" || node != "relay_2" {
		t.Fatalf("splitOwner = (%q, %q), want (a@b, relay_2)", connID, node)
	}
}

func TestSplitOwnerLegacyValue(t *testing.T) {
	connID, node := splitOwner("bare")
	if connID != "bare" || node != "" {
		t.Fatalf("splitOwner = (%q, %q), want (bare, \"\")", connID, node)
	}
}

func TestPresenceKey(t *testing.T) {
	if got := presenceKey("u1"); got != "hw:presence:u1" {
		t.Fatalf("presenceKey = %q", got)
	}
}
