// Package keycodec generates and fingerprints the bearer secrets handed out for
// API keys and webhook signing.
//
// Token formats:
//
//	API key         lk_live_<48 hex>   (24 random bytes)
//	webhook secret  whsec_<64 hex>     (32 random bytes)
//
// Hashes are unsalted SHA-256. The tokens carry 192+ bits of entropy, so a slow
// KDF would add latency to every key check without making offline guessing
// any less infeasible.
package keycodec

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

type Realm string

const (
	RealmAPI     Realm = "api"
	RealmWebhook Realm = "webhook"
)

const (
	APIKeyPrefix        = "lk_live_"
	WebhookSecretPrefix = "whsec_"

	apiKeyBytes        = 24
	webhookSecretBytes = 32

	// DisplayPrefixLen is how much of a raw token is kept for identification.
	DisplayPrefixLen = 12
)

// GenerateRawKey returns a new random token for realm. It panics if the system
// randomness source fails, since no token can be issued safely without it.
func GenerateRawKey(realm Realm) string {
	switch realm {
	case RealmAPI:
		return APIKeyPrefix + randomHex(apiKeyBytes)
	case RealmWebhook:
		return WebhookSecretPrefix + randomHex(webhookSecretBytes)
	default:
		panic(fmt.Sprintf("keycodec: unknown realm %q", realm))
	}
}

// DerivePrefix returns the first DisplayPrefixLen characters of raw.
func DerivePrefix(raw string) string {
	if len(raw) <= DisplayPrefixLen {
		return raw
	}
	return raw[:DisplayPrefixLen]
}

// Hash returns the lowercase hex SHA-256 digest of raw.
func Hash(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("keycodec: read random bytes: %v", err))
	}
	return hex.EncodeToString(b)
}
