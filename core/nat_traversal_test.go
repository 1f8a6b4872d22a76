package core

import "testing"

func TestDeterministicPrefixIsReproducible(t *testing.T) {
	a := DeterministicPrefix("node-x")
	b := DeterministicPrefix("node-x")
	if a != b {
		t.Fatalf("expected DeterministicPrefix to be reproducible, got %v vs %v", a, b)
	}
	if a[0] != 0xfd {
		t.Fatalf("expected IPv6 unique-local prefix byte 0xfd, got 0x%02x", a[0])
	}
}

func TestDeterministicPrefixVariesByNodeID(t *testing.T) {
	a := DeterministicPrefix("node-x")
	b := DeterministicPrefix("node-y")
	if a == b {
		t.Fatalf("expected distinct node ids to yield distinct prefixes")
	}
}
