package cache

import (
	"fmt"
	"testing"
	"time"

	"github.com/BaSui01/agentroute/types"
	"github.com/stretchr/testify/assert"
)

func entryWithIntent(intent string) *Entry {
	return &Entry{
		Response:  &types.ParsedResponse{Intent: intent, Confidence: 0.9},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestLocal_SetAndGet(t *testing.T) {
	c := NewLocal(10, time.Minute)

	c.Set("k1", entryWithIntent("pricing"))

	got, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "pricing", got.Response.Intent)
	assert.Equal(t, 1, got.HitCount)
}

func TestLocal_Miss(t *testing.T) {
	c := NewLocal(10, time.Minute)
	_, ok := c.Get("absent")
	assert.False(t, ok)
}

func TestLocal_TTLExpiry(t *testing.T) {
	c := NewLocal(10, 10*time.Millisecond)
	c.Set("k1", entryWithIntent("pricing"))

	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get("k1")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLocal_LRUEviction(t *testing.T) {
	c := NewLocal(3, time.Minute)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), entryWithIntent("x"))
	}

	// touch k0 so k1 becomes the LRU victim
	_, ok := c.Get("k0")
	assert.True(t, ok)

	c.Set("k3", entryWithIntent("y"))

	_, ok = c.Get("k1")
	assert.False(t, ok)
	_, ok = c.Get("k0")
	assert.True(t, ok)
	assert.Equal(t, uint64(1), c.Evictions())
}

func TestLocal_UpdateExistingKey(t *testing.T) {
	c := NewLocal(2, time.Minute)
	c.Set("k1", entryWithIntent("old"))
	c.Set("k1", entryWithIntent("new"))

	got, ok := c.Get("k1")
	assert.True(t, ok)
	assert.Equal(t, "new", got.Response.Intent)
	assert.Equal(t, 1, c.Len())
}

func TestFingerprint_NormalizesPrompt(t *testing.T) {
	a := Fingerprint("t1", "Summarize   this Contract")
	b := Fingerprint("t1", "summarize this contract")
	c := Fingerprint("t1", "summarize that contract")
	d := Fingerprint("t2", "summarize this contract")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEqual(t, a, d, "tenants must not share keys")
}
