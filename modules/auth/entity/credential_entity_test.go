package entity

import (
	"testing"
	"time"
)

func TestGoogleCredentialExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cred := &GoogleCredential{}
	if !cred.Expired(now) {
		t.Error("credential without expiry should count as expired")
	}

	past := now.Add(-time.Minute)
	cred.Expiry = &past
	if !cred.Expired(now) {
		t.Error("past expiry should be expired")
	}

	future := now.Add(time.Minute)
	cred.Expiry = &future
	if cred.Expired(now) {
		t.Error("future expiry should not be expired")
	}
}

func TestGoogleCredentialExpiredComparesAcrossZones(t *testing.T) {
	// Same instant expressed in a non-UTC zone must compare identically.
	zone := time.FixedZone("CLT", -4*60*60)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	localExpiry := now.Add(time.Hour).In(zone)

	cred := &GoogleCredential{Expiry: &localExpiry}
	if cred.Expired(now.In(zone)) {
		t.Error("zone representation must not change the comparison")
	}
}
