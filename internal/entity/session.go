package entity

import (
	"strings"
	"time"
)

// Page identifies one of the sidebar destinations.
type Page string

const (
	PageLogin     Page = "Login"
	PageMetadata  Page = "Metadata"
	PageTranslate Page = "Translate"
	PageAdmin     Page = "Admin"
	PageRefresh   Page = "Refresh"
	PageAbout     Page = "About"
)

// Pages lists the sidebar menu in display order.
var Pages = []Page{PageLogin, PageMetadata, PageTranslate, PageAdmin, PageRefresh, PageAbout}

// ParsePage resolves a menu label, case-insensitively.
func ParsePage(s string) (Page, bool) {
	for _, p := range Pages {
		if strings.EqualFold(string(p), strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// FlashLevel is the severity of a one-shot message shown on the next render.
type FlashLevel string

const (
	FlashSuccess FlashLevel = "success"
	FlashInfo    FlashLevel = "info"
	FlashWarning FlashLevel = "warning"
	FlashError   FlashLevel = "error"
)

// Flash is a one-shot message.
type Flash struct {
	Level   FlashLevel
	Message string
}

// Session is the per-browser state of the page controller. It is never
// shared between browsers and is discarded by Refresh.
type Session struct {
	ID            string
	LoggedIn      bool
	Username      string
	Page          Page
	AdminLoggedIn bool
	Flashes       []Flash
	LastSeen      time.Time
}

// NewSession returns a fresh session on the Login page.
func NewSession(id string, now time.Time) *Session {
	return &Session{ID: id, Page: PageLogin, LastSeen: now}
}

// Reset clears everything but the identifier.
func (s *Session) Reset() {
	*s = Session{ID: s.ID, Page: PageLogin, LastSeen: s.LastSeen}
}

// AddFlash queues a message for the next render.
func (s *Session) AddFlash(level FlashLevel, msg string) {
	s.Flashes = append(s.Flashes, Flash{Level: level, Message: msg})
}

// TakeFlashes returns and clears queued messages.
func (s *Session) TakeFlashes() []Flash {
	out := s.Flashes
	s.Flashes = nil
	return out
}
