package feeds

import (
	"context"
	"errors"
	"fmt"
	"solo/models"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
	"golang.org/x/text/language"
)

// Store is the part of the content store the Assembler reads
type Store interface {
	GetPreference(ctx context.Context) (*models.Preference, error)
	GetPublishedArticles(ctx context.Context, limit int) ([]models.Article, error)
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	GetTag(ctx context.Context, id string) (*models.Tag, error)
	GetArticleIdsByTag(ctx context.Context, tagId string, limit int) ([]string, error)
}

// Assembler selects the articles of a feed and builds its model
type Assembler struct {
	store     Store
	authors   *AuthorResolver
	generator string
	now       func() time.Time
}

func NewAssembler(store Store, users UserStore, version string) *Assembler {
	return &Assembler{
		store:     store,
		authors:   NewAuthorResolver(users),
		generator: "B3log Solo, ver " + version,
		now:       time.Now,
	}
}

// BuildSiteFeed builds the feed of the latest published articles
func (a *Assembler) BuildSiteFeed(ctx context.Context, format Format) (*Feed, error) {
	const op = "build site feed"

	pref, err := a.store.GetPreference(ctx)
	if errors.Is(err, models.ErrNotFound) {
		// Atom answers a missing preference like any internal error, RSS as not found
		if format == RSS {
			return nil, notFound(op, ErrNoPreference)
		}
		return nil, unavailable(op, ErrNoPreference)
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	articles, err := a.store.GetPublishedArticles(ctx, EntryLimit)
	if err != nil {
		return nil, unavailable(op, fmt.Errorf("get published articles: %w", err))
	}

	feed := a.header(pref, format, format.sitePath(), pref.BlogSubtitle)

	feed.Entries, err = a.entries(ctx, pref, articles)
	if err != nil {
		return nil, unavailable(op, err)
	}

	return feed, nil
}

// BuildTagFeed builds the feed of the latest published articles tagged tagId
func (a *Assembler) BuildTagFeed(ctx context.Context, tagId string, format Format) (*Feed, error) {
	const op = "build tag feed"

	if strings.TrimSpace(tagId) == "" {
		return nil, badRequest(op, errors.New("missing tag id"))
	}

	tag, err := a.store.GetTag(ctx, tagId)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound(op, fmt.Errorf("tag %s: %w", tagId, err))
	}
	if err != nil {
		return nil, unavailable(op, fmt.Errorf("get tag %s: %w", tagId, err))
	}

	pref, err := a.store.GetPreference(ctx)
	if errors.Is(err, models.ErrNotFound) {
		return nil, notFound(op, ErrNoPreference)
	}
	if err != nil {
		return nil, unavailable(op, err)
	}

	ids, err := a.store.GetArticleIdsByTag(ctx, tag.Id, EntryLimit)
	if err != nil {
		return nil, unavailable(op, fmt.Errorf("get articles of tag %s: %w", tag.Id, err))
	}

	articles := make([]models.Article, 0, len(ids))
	for _, id := range ids {
		article, err := a.store.GetArticle(ctx, id)
		if err != nil {
			return nil, unavailable(op, fmt.Errorf("get article %s: %w", id, err))
		}
		if !article.IsPublished {
			continue
		}
		articles = append(articles, *article)
	}

	if len(articles) == 0 {
		return nil, notFound(op, fmt.Errorf("no published articles for tag %s", tag.Id))
	}

	sortNewestFirst(articles)

	feed := a.header(pref, format, format.tagPath(), pref.BlogSubtitle+", "+tag.Title)

	feed.Entries, err = a.entries(ctx, pref, articles)
	if err != nil {
		return nil, unavailable(op, err)
	}

	return feed, nil
}

// sortNewestFirst orders by update time, then by id, both descending
func sortNewestFirst(articles []models.Article) {
	sort.SliceStable(articles, func(i, j int) bool {
		if !articles[i].UpdatedAt.Equal(articles[j].UpdatedAt) {
			return articles[i].UpdatedAt.After(articles[j].UpdatedAt)
		}
		return articles[i].Id > articles[j].Id
	})
}

func (a *Assembler) header(pref *models.Preference, format Format, path string, subtitle string) *Feed {
	home := "http://" + pref.BlogHost

	return &Feed{
		Title:     pref.BlogTitle,
		Subtitle:  subtitle,
		Generator: a.generator,
		Link:      home,
		SelfLink:  home + path,
		Id:        home + "/",
		Author:    pref.BlogTitle,
		Updated:   a.now().In(location(pref.TimeZoneId)),
		Language:  languageTag(pref.LocaleString),
	}
}

func (a *Assembler) entries(ctx context.Context, pref *models.Preference, articles []models.Article) ([]Entry, error) {
	multipleUsers, err := a.authors.HasMultipleUsers(ctx)
	if err != nil {
		return nil, err
	}

	// A single user blog resolves its author once, from the first article
	author := ""
	if !multipleUsers && len(articles) > 0 {
		author, err = a.authors.Resolve(ctx, &articles[0])
		if err != nil {
			log.WithFields(log.Fields{
				"article": articles[0].Id,
				"error":   err,
			}).Warn("Could not resolve blog author")
			author = ""
		}
	}

	entries := make([]Entry, 0, len(articles))
	for i := range articles {
		article := &articles[i]

		if multipleUsers {
			author, err = a.authors.Resolve(ctx, article)
			if err != nil {
				return nil, err
			}
		}

		body := article.Abstract
		if pref.IsFullContent() {
			body = article.Content
		}

		link := "http://" + pref.BlogHost + article.Permalink

		entries = append(entries, Entry{
			Title:       article.Title,
			Body:        body,
			Updated:     article.UpdatedAt,
			Link:        link,
			Id:          link,
			Author:      author,
			AuthorEmail: article.AuthorEmail,
			Categories:  tagTerms(article.Tags),
		})
	}

	return entries, nil
}

// tagTerms splits the comma joined tag field. An empty field has no terms.
func tagTerms(tags string) []string {
	return lo.Compact(lo.Map(strings.Split(tags, ","), func(tag string, _ int) string {
		return strings.TrimSpace(tag)
	}))
}

func location(timeZoneId string) *time.Location {
	loc, err := time.LoadLocation(timeZoneId)
	if err != nil {
		log.WithFields(log.Fields{
			"timeZone": timeZoneId,
			"error":    err,
		}).Warn("Unknown time zone, using UTC")
		return time.UTC
	}
	return loc
}

// languageTag turns a locale string such as zh_CN into zh-cn
func languageTag(locale string) string {
	tag, err := language.Parse(strings.ReplaceAll(locale, "_", "-"))
	if err != nil {
		return strings.ToLower(strings.ReplaceAll(locale, "_", "-"))
	}

	base, _ := tag.Base()
	region, _ := tag.Region()
	return strings.ToLower(base.String() + "-" + region.String())
}
