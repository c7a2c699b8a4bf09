package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// keySeparator keeps the hashed fields from bleeding into each other, so
// ("ab", "c") and ("a", "bc") never collide.
const keySeparator = "\x00"

// DeriveKey computes a deterministic cache key from the model identifier,
// the canonical generation parameters, and the prompt.
//
// The only prompt normalization applied is whitespace trimming: prompts that
// differ in leading/trailing whitespace map to the same key, anything else
// yields a distinct key. Distinct models or parameters never collide.
func DeriveKey(modelID, canonicalParams, prompt string) string {
	h := sha256.New()
	h.Write([]byte(modelID))
	h.Write([]byte(keySeparator))
	h.Write([]byte(canonicalParams))
	h.Write([]byte(keySeparator))
	h.Write([]byte(strings.TrimSpace(prompt)))
	return hex.EncodeToString(h.Sum(nil))
}
