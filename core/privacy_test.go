package core

import "testing"

func TestPrivacyLevelAllowsAccessFrom(t *testing.T) {
	cases := []struct {
		level, from PrivacyLevel
		want        bool
	}{
		{Private, Private, true},
		{Private, FullPublic, true},
		{FullPublic, Private, false},
		{P2P, P2P, true},
		{P2P, PrivateNetwork, false},
		{PublicNetwork, FullPublic, true},
	}
	for _, c := range cases {
		if got := c.level.AllowsAccessFrom(c.from); got != c.want {
			t.Fatalf("%s.AllowsAccessFrom(%s) = %v, want %v", c.level, c.from, got, c.want)
		}
	}
}

func TestPrivacyLevelPermitsProtocolMatrix(t *testing.T) {
	if Private.PermitsProtocol(ProtocolHTTP) {
		t.Fatalf("Private must not permit HTTP")
	}
	if !Private.PermitsProtocol(ProtocolDirectMemory) {
		t.Fatalf("Private must permit DirectMemory")
	}
	if PrivateNetwork.PermitsProtocol(ProtocolVPN) {
		t.Fatalf("PrivateNetwork must not permit VPN")
	}
	if !P2P.PermitsProtocol(ProtocolHTTP) {
		t.Fatalf("P2P must permit HTTP")
	}
	if !FullPublic.PermitsProtocol(ProtocolVPN) {
		t.Fatalf("FullPublic must permit VPN")
	}
}

func TestRewardMultiplierIsMonotonic(t *testing.T) {
	levels := []PrivacyLevel{Private, PrivateNetwork, P2P, PublicNetwork, FullPublic}
	prev := -1.0
	for _, l := range levels {
		m := l.RewardMultiplier()
		if m < prev {
			t.Fatalf("reward multiplier not monotonic at %s: %f < %f", l, m, prev)
		}
		prev = m
	}
}
