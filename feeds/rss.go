package feeds

import (
	"encoding/xml"
	"fmt"
	"time"
)

type rssDocument struct {
	XMLName   xml.Name   `xml:"rss"`
	Version   string     `xml:"version,attr"`
	XmlnsAtom string     `xml:"xmlns:atom,attr"`
	Channel   rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title         string      `xml:"title"`
	Link          string      `xml:"link"`
	AtomLink      rssAtomLink `xml:"atom:link"`
	Description   string      `xml:"description"`
	Generator     string      `xml:"generator"`
	Language      string      `xml:"language"`
	LastBuildDate string      `xml:"lastBuildDate"`
	Items         []rssItem   `xml:"item"`
}

type rssAtomLink struct {
	Href string `xml:"href,attr"`
	Rel  string `xml:"rel,attr"`
	Type string `xml:"type,attr"`
}

type rssItem struct {
	Title       string   `xml:"title"`
	Link        string   `xml:"link"`
	Description string   `xml:"description"`
	Author      string   `xml:"author"`
	Categories  []string `xml:"category"`
	Guid        string   `xml:"guid"`
	PubDate     string   `xml:"pubDate"`
}

// RenderRSS serializes the feed as an RSS 2.0 document
func RenderRSS(feed *Feed) ([]byte, error) {
	doc := rssDocument{
		Version:   "2.0",
		XmlnsAtom: atomNamespace,
		Channel: rssChannel{
			Title:         feed.Title,
			Link:          feed.Link,
			AtomLink:      rssAtomLink{Href: feed.SelfLink, Rel: "self", Type: "application/rss+xml"},
			Description:   feed.Subtitle,
			Generator:     feed.Generator,
			Language:      feed.Language,
			LastBuildDate: feed.Updated.Format(time.RFC1123Z),
			Items:         make([]rssItem, len(feed.Entries)),
		},
	}

	for i, entry := range feed.Entries {
		doc.Channel.Items[i] = rssItem{
			Title:       entry.Title,
			Link:        entry.Link,
			Description: entry.Body,
			Author:      fmt.Sprintf("%s (%s)", entry.AuthorEmail, entry.Author),
			Categories:  entry.Categories,
			Guid:        entry.Id,
			PubDate:     entry.Updated.Format(time.RFC1123Z),
		}
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal rss: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}
