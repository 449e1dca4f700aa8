package feeds

import (
	"encoding/xml"
	"fmt"
	"time"
)

const atomNamespace = "http://www.w3.org/2005/Atom"

type atomFeed struct {
	XMLName   xml.Name    `xml:"feed"`
	Xmlns     string      `xml:"xmlns,attr"`
	Title     atomText    `xml:"title"`
	Subtitle  atomText    `xml:"subtitle"`
	Updated   string      `xml:"updated"`
	Author    atomAuthor  `xml:"author"`
	Links     []atomLink  `xml:"link"`
	Id        string      `xml:"id"`
	Generator string      `xml:"generator,omitempty"`
	Entries   []atomEntry `xml:"entry"`
}

type atomText struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr,omitempty"`
	Type string `xml:"type,attr,omitempty"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

type atomEntry struct {
	Title      atomText       `xml:"title"`
	Author     atomAuthor     `xml:"author"`
	Link       atomLink       `xml:"link"`
	Id         string         `xml:"id"`
	Updated    string         `xml:"updated"`
	Categories []atomCategory `xml:"category"`
	Summary    atomText       `xml:"summary"`
}

// RenderAtom serializes the feed as an Atom 1.0 document
func RenderAtom(feed *Feed) ([]byte, error) {
	doc := atomFeed{
		Xmlns:    atomNamespace,
		Title:    atomText{Type: "text", Value: feed.Title},
		Subtitle: atomText{Type: "text", Value: feed.Subtitle},
		Updated:  feed.Updated.Format(time.RFC3339),
		Author:   atomAuthor{Name: feed.Author},
		Links: []atomLink{
			{Href: feed.Link, Rel: "alternate", Type: "text/html"},
			{Href: feed.SelfLink, Rel: "self", Type: "application/atom+xml"},
		},
		Id:        feed.Id,
		Generator: feed.Generator,
		Entries:   make([]atomEntry, len(feed.Entries)),
	}

	for i, entry := range feed.Entries {
		categories := make([]atomCategory, len(entry.Categories))
		for j, term := range entry.Categories {
			categories[j] = atomCategory{Term: term}
		}

		doc.Entries[i] = atomEntry{
			Title:      atomText{Type: "text", Value: entry.Title},
			Author:     atomAuthor{Name: entry.Author},
			Link:       atomLink{Href: entry.Link, Rel: "alternate"},
			Id:         entry.Id,
			Updated:    entry.Updated.Format(time.RFC3339),
			Categories: categories,
			Summary:    atomText{Type: "html", Value: entry.Body},
		}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal atom: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}
