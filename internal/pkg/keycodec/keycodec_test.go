package keycodec

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	apiKeyPattern        = regexp.MustCompile(`^lk_live_[0-9a-f]{48}$`)
	webhookSecretPattern = regexp.MustCompile(`^whsec_[0-9a-f]{64}$`)
)

func TestGenerateRawKey_Formats(t *testing.T) {
	apiKey := GenerateRawKey(RealmAPI)
	assert.Regexp(t, apiKeyPattern, apiKey)

	secret := GenerateRawKey(RealmWebhook)
	assert.Regexp(t, webhookSecretPattern, secret)

	assert.NotEqual(t, APIKeyPrefix[:4], secret[:4], "realms must not be confusable")
}

func TestGenerateRawKey_UnknownRealm(t *testing.T) {
	assert.Panics(t, func() { GenerateRawKey(Realm("ssh")) })
}

func TestGenerateRawKey_NoCollisions(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		k := GenerateRawKey(RealmAPI)
		_, dup := seen[k]
		require.False(t, dup, "collision after %d keys", i)
		seen[k] = struct{}{}
	}
}

func TestDerivePrefix(t *testing.T) {
	raw := GenerateRawKey(RealmAPI)
	prefix := DerivePrefix(raw)

	assert.Len(t, prefix, DisplayPrefixLen)
	assert.Equal(t, raw[:12], prefix)
	assert.Equal(t, "lk_live_", prefix[:8])
	assert.Equal(t, "short", DerivePrefix("short"))
}

func TestHash(t *testing.T) {
	// echo -n "abc" | sha256sum
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))

	a := GenerateRawKey(RealmAPI)
	b := GenerateRawKey(RealmAPI)
	assert.Equal(t, Hash(a), Hash(a))
	assert.NotEqual(t, Hash(a), Hash(b))
	assert.Len(t, Hash(a), 64)
}
