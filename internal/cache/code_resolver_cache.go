package cache

import (
	"strings"
	"time"

	affiliatedomain "github.com/maiscriancaoficial/affiliates/internal/affiliate/domain"
)

// Referral links resolve on every tracked click, so a short TTL keeps the
// lookup off the database without holding stale profiles for long.
const defaultCodeTTL = 45 * time.Second

// CodeResolverCache stores code-to-affiliate lookups for the redirect path.
type CodeResolverCache interface {
	GetAffiliate(code string) (*affiliatedomain.Response, bool)
	SetAffiliate(code string, affiliate *affiliatedomain.Response)
	Invalidate(code string)
}

type codeResolverCache struct {
	affiliates Cache[string, *affiliatedomain.Response]
	codeTTL    time.Duration
}

func NewCodeResolverCache() CodeResolverCache {
	return &codeResolverCache{
		affiliates: NewTTLCache[string, *affiliatedomain.Response](),
		codeTTL:    defaultCodeTTL,
	}
}

func (c *codeResolverCache) GetAffiliate(code string) (*affiliatedomain.Response, bool) {
	return c.affiliates.Get(cacheKey(code))
}

func (c *codeResolverCache) SetAffiliate(code string, affiliate *affiliatedomain.Response) {
	if affiliate == nil {
		return
	}
	c.affiliates.Set(cacheKey(code), affiliate, c.codeTTL)
}

func (c *codeResolverCache) Invalidate(code string) {
	c.affiliates.Delete(cacheKey(code))
}

func cacheKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
