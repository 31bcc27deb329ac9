package store

import (
	"sync"
	"time"
)

// CookieTTL is the lifetime of every attribution cookie this system writes.
const CookieTTL = 90 * 24 * time.Hour

// Cookie mirrors the attributes the attribution cookies are written with:
// path /, 90-day expiry, SameSite=Lax.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	MaxAge   time.Duration
	SameSite string
}

// NewCookie returns a cookie carrying the standard attribution policy.
func NewCookie(name, value string) Cookie {
	return Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   CookieTTL,
		SameSite: "Lax",
	}
}

// CookieJar abstracts the browser cookie surface. The HTTP ingest layer binds
// it to the request/response pair; tests use MemoryJar.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(c Cookie)
}

type MemoryJar struct {
	mu      sync.Mutex
	cookies map[string]Cookie
}

func NewMemoryJar() *MemoryJar {
	return &MemoryJar{cookies: make(map[string]Cookie)}
}

func (j *MemoryJar) Get(name string) (string, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	if !ok || c.Value == "" {
		return "", false
	}
	return c.Value, true
}

func (j *MemoryJar) Set(c Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cookies[c.Name] = c
}

// Cookie returns the full cookie record, for tests asserting on attributes.
func (j *MemoryJar) Cookie(name string) (Cookie, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	c, ok := j.cookies[name]
	return c, ok
}
