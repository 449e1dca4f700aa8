// Package feeds builds Atom and RSS syndication feeds of published articles
package feeds

import (
	"time"
)

// EntryLimit is the maximum number of entries in a feed
const EntryLimit = 10

// Endpoint paths, relative to the blog host
const (
	AtomSitePath = "/blog-articles-feed.do"
	AtomTagPath  = "/tag-articles-feed.do"
	RSSSitePath  = "/blog-articles-rss.do"
	RSSTagPath   = "/tag-articles-rss.do"
)

// Format selects the syndication format a feed is built for
type Format int

const (
	Atom Format = iota
	RSS
)

func (f Format) String() string {
	if f == RSS {
		return "rss"
	}
	return "atom"
}

// sitePath and tagPath return the endpoint that serves the format
func (f Format) sitePath() string {
	if f == RSS {
		return RSSSitePath
	}
	return AtomSitePath
}

func (f Format) tagPath() string {
	if f == RSS {
		return RSSTagPath
	}
	return AtomTagPath
}

// Feed is the format independent model rendered by RenderAtom and RenderRSS.
// Text fields hold raw text; renderers escape them.
type Feed struct {
	Title     string
	Subtitle  string
	Generator string
	// Link is the blog home, e.g. http://localhost:8080
	Link string
	// SelfLink is the endpoint serving this feed
	SelfLink string
	Id       string
	Author   string
	Updated  time.Time
	// Language is "<lang>-<country>" in lower case, e.g. zh-cn
	Language string
	Entries  []Entry
}

type Entry struct {
	Title string
	// Body is the article content or abstract depending on the feed output mode
	Body        string
	Updated     time.Time
	Link        string
	Id          string
	Author      string
	AuthorEmail string
	Categories  []string
}
