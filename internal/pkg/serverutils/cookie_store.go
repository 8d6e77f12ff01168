package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"notebooklm-chat-be/pkg/store"
)

// CookieStore adapts one request's cookie jar to the CredentialStore
// contract. Each instance is bound to a single fiber context, so tokens from
// concurrent requests can never cross-contaminate.
type CookieStore struct {
	ctx    *fiber.Ctx
	secure bool
}

var _ store.CredentialStore = (*CookieStore)(nil)

func NewCookieStore(ctx *fiber.Ctx, secure bool) *CookieStore {
	return &CookieStore{ctx: ctx, secure: secure}
}

func (s *CookieStore) Get(name string) string {
	return s.ctx.Cookies(name)
}

func (s *CookieStore) Set(name, value string, ttl time.Duration, httpOnly bool) {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: httpOnly,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *CookieStore) Delete(name string) {
	s.ctx.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
