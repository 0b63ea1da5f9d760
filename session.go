package main

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/ortelius/sbom-finder-dashboard/backend"
	"github.com/ortelius/sbom-finder-dashboard/catalog"
	"github.com/ortelius/sbom-finder-dashboard/compare"
	"github.com/ortelius/sbom-finder-dashboard/detail"
	"github.com/ortelius/sbom-finder-dashboard/upload"
	"go.uber.org/zap"
)

// sessionCookie carries the visitor's session id
const sessionCookie = "sbomfinder_session"

// session is the view state of one visitor: device list, comparison, detail
// page and upload form. Each component guards its own state; mu covers the
// form and flash message.
type session struct {
	catalog *catalog.Catalog
	engine  *compare.Engine
	detail  *detail.Renderer
	uploads *upload.Coordinator

	mu        sync.Mutex
	form      upload.Form
	flash     string
	uploading bool
}

func newSession(api *backend.Client, logger *zap.Logger) *session {
	cat := catalog.New(api, logger)
	return &session{
		catalog: cat,
		engine:  compare.NewEngine(api, logger),
		detail:  detail.NewRenderer(api, logger),
		uploads: upload.NewCoordinator(api, cat, logger),
		form:    upload.Form{Kind: upload.KindSource},
	}
}

// setFlash stores a one-shot message shown on the next rendered page
func (s *session) setFlash(msg string) {
	s.mu.Lock()
	s.flash = msg
	s.mu.Unlock()
}

func (s *session) popFlash() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := s.flash
	s.flash = ""
	return msg
}

func (s *session) isUploading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploading
}

// Acquire marks an upload in flight so every page shows the progress banner
func (s *session) Acquire() {
	s.mu.Lock()
	s.uploading = true
	s.mu.Unlock()
}

// Release clears the in-flight marker
func (s *session) Release() {
	s.mu.Lock()
	s.uploading = false
	s.mu.Unlock()
}

// sessionStore keeps sessions in an LRU that also expires idle entries
type sessionStore struct {
	cache   *expirable.LRU[string, *session]
	factory func() *session
	mu      sync.Mutex
}

func newSessionStore(size int, ttl time.Duration, factory func() *session) *sessionStore {
	return &sessionStore{
		cache:   expirable.NewLRU[string, *session](size, nil, ttl),
		factory: factory,
	}
}

// get returns the caller's session, creating one and setting the cookie when
// the request carries no known id
func (st *sessionStore) get(c *fiber.Ctx) *session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if id := c.Cookies(sessionCookie); id != "" {
		if s, ok := st.cache.Get(id); ok {
			// re-adding restarts the idle timer
			st.cache.Add(id, s)
			return s
		}
	}

	id := uuid.NewString()
	s := st.factory()
	st.cache.Add(id, s)
	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return s
}

// len reports the number of live sessions
func (st *sessionStore) len() int {
	return st.cache.Len()
}
