package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
)

func TestTTLCache_SetGetDelete(t *testing.T) {
	c := NewTTLCache[string, int]()

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", 1, time.Minute)
	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, got)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 20*time.Millisecond)
	time.Sleep(40 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestTTLCache_ZeroTTLNotStored(t *testing.T) {
	c := NewTTLCache[string, int]()

	c.Set("a", 1, 0)
	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestCodeResolverCache_NormalizesCode(t *testing.T) {
	c := NewCodeResolverCache()

	c.SetAffiliate("abc123", &affiliatedomain.Response{ID: "1", Code: "ABC123"})

	got, ok := c.GetAffiliate(" ABC123 ")
	assert.True(t, ok)
	assert.Equal(t, "1", got.ID)

	c.Invalidate("Abc123")
	_, ok = c.GetAffiliate("ABC123")
	assert.False(t, ok)
}

func TestCodeResolverCache_IgnoresNil(t *testing.T) {
	c := NewCodeResolverCache()

	c.SetAffiliate("ABC123", nil)
	_, ok := c.GetAffiliate("ABC123")
	assert.False(t, ok)
}
