package feeds_test

import (
	"context"
	"errors"
	"fmt"
	"solo/feeds"
	"solo/models"
	"sort"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	pref        *models.Preference
	articles    []models.Article
	tags        map[string]models.Tag
	tagArticles map[string][]string
	users       []models.User

	articlesErr  error
	usersErr     error
	emailLookups int
}

func (s *fakeStore) GetPreference(ctx context.Context) (*models.Preference, error) {
	if s.pref == nil {
		return nil, models.ErrNotFound
	}
	p := *s.pref
	return &p, nil
}

func (s *fakeStore) GetPublishedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	if s.articlesErr != nil {
		return nil, s.articlesErr
	}

	var published []models.Article
	for _, article := range s.articles {
		if article.IsPublished {
			published = append(published, article)
		}
	}
	sort.SliceStable(published, func(i, j int) bool {
		if !published[i].UpdatedAt.Equal(published[j].UpdatedAt) {
			return published[i].UpdatedAt.After(published[j].UpdatedAt)
		}
		return published[i].Id > published[j].Id
	})
	if len(published) > limit {
		published = published[:limit]
	}
	return published, nil
}

func (s *fakeStore) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	for _, article := range s.articles {
		if article.Id == id {
			a := article
			return &a, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	tag, ok := s.tags[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &tag, nil
}

func (s *fakeStore) GetArticleIdsByTag(ctx context.Context, tagId string, limit int) ([]string, error) {
	ids := s.tagArticles[tagId]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *fakeStore) CountUsers(ctx context.Context) (int, error) {
	if s.usersErr != nil {
		return 0, s.usersErr
	}
	return len(s.users), nil
}

func (s *fakeStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.emailLookups++
	for _, user := range s.users {
		if user.Email == email {
			u := user
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s *fakeStore) GetAdmin(ctx context.Context) (*models.User, error) {
	for _, user := range s.users {
		if user.Role == models.AdminRole {
			u := user
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

var base = time.Date(2012, 5, 10, 8, 0, 0, 0, time.UTC)

func newPreference() *models.Preference {
	return &models.Preference{
		BlogTitle:      "Solo",
		BlogSubtitle:   "Java 开源博客",
		BlogHost:       "localhost:8080",
		TimeZoneId:     "Asia/Shanghai",
		LocaleString:   "zh_CN",
		FeedOutputMode: models.FeedOutputAbstract,
	}
}

func newArticle(i int, published bool, author string) models.Article {
	return models.Article{
		Id:          fmt.Sprintf("13366%08d", i),
		Title:       fmt.Sprintf("Article %d", i),
		Content:     fmt.Sprintf("<p>Content %d</p>", i),
		Abstract:    fmt.Sprintf("Abstract %d", i),
		Tags:        "Go,Solo",
		Permalink:   fmt.Sprintf("/articles/%d.html", i),
		AuthorEmail: author,
		IsPublished: published,
		UpdatedAt:   base.Add(time.Duration(i) * time.Hour),
	}
}

func singleUserStore(n int) *fakeStore {
	store := &fakeStore{
		pref:  newPreference(),
		users: []models.User{{Id: "1", Name: "Admin", Email: "admin@b3log.org", Role: models.AdminRole}},
	}
	for i := 0; i < n; i++ {
		store.articles = append(store.articles, newArticle(i, i%4 != 3, "admin@b3log.org"))
	}
	return store
}

func TestBuildSiteFeedSelectsNewestPublished(t *testing.T) {
	store := singleUserStore(20)
	assembler := feeds.NewAssembler(store, store, "0.4.6")

	for _, format := range []feeds.Format{feeds.Atom, feeds.RSS} {
		t.Run(format.String(), func(t *testing.T) {
			feed, err := assembler.BuildSiteFeed(context.Background(), format)
			require.NoError(t, err)

			require.LessOrEqual(t, len(feed.Entries), feeds.EntryLimit)
			require.Len(t, feed.Entries, feeds.EntryLimit)

			for i, entry := range feed.Entries {
				assert.True(t, strings.HasPrefix(entry.Link, "http://localhost:8080/articles/"))
				if i > 0 {
					assert.False(t, entry.Updated.After(feed.Entries[i-1].Updated))
				}
			}

			// Article 19 is a draft (19 % 4 == 3), so 18 is the newest published
			assert.Equal(t, "Article 18", feed.Entries[0].Title)
			for _, entry := range feed.Entries {
				assert.NotContains(t, []string{"Article 19", "Article 15", "Article 11"}, entry.Title)
			}
		})
	}
}

func TestBuildSiteFeedHeader(t *testing.T) {
	store := singleUserStore(1)
	assembler := feeds.NewAssembler(store, store, "0.4.6")

	feed, err := assembler.BuildSiteFeed(context.Background(), feeds.Atom)
	require.NoError(t, err)

	assert.Equal(t, "Solo", feed.Title)
	assert.Equal(t, "Java 开源博客", feed.Subtitle)
	assert.Equal(t, "Solo", feed.Author)
	assert.Equal(t, "http://localhost:8080", feed.Link)
	assert.Equal(t, "http://localhost:8080/blog-articles-feed.do", feed.SelfLink)
	assert.Equal(t, "http://localhost:8080/", feed.Id)
	assert.Equal(t, "B3log Solo, ver 0.4.6", feed.Generator)
	assert.Equal(t, "zh-cn", feed.Language)
	assert.Equal(t, "Asia/Shanghai", feed.Updated.Location().String())

	rss, err := assembler.BuildSiteFeed(context.Background(), feeds.RSS)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/blog-articles-rss.do", rss.SelfLink)
}

func TestBuildEntryFields(t *testing.T) {
	store := singleUserStore(1)
	assembler := feeds.NewAssembler(store, store, "0.4.6")

	feed, err := assembler.BuildSiteFeed(context.Background(), feeds.Atom)
	require.NoError(t, err)
	require.Len(t, feed.Entries, 1)

	entry := feed.Entries[0]
	assert.Equal(t, "Article 0", entry.Title)
	assert.Equal(t, "Abstract 0", entry.Body)
	assert.Equal(t, "http://localhost:8080/articles/0.html", entry.Link)
	assert.Equal(t, entry.Link, entry.Id)
	assert.Equal(t, "admin@b3log.org", entry.AuthorEmail)
	assert.Equal(t, []string{"Go", "Solo"}, entry.Categories)
	assert.True(t, entry.Updated.Equal(base))
}

func TestBuildFeedOutputMode(t *testing.T) {
	tests := []struct {
		name     string
		mode     string
		abstract string
		expected string
	}{
		{name: "full content", mode: models.FeedOutputFullContent, abstract: "Abstract", expected: "<p>Content 0</p>"},
		{name: "abstract", mode: models.FeedOutputAbstract, abstract: "Abstract", expected: "Abstract"},
		{name: "missing abstract", mode: models.FeedOutputAbstract, abstract: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := singleUserStore(1)
			store.pref.FeedOutputMode = tt.mode
			store.articles[0].Abstract = tt.abstract

			feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.RSS)
			require.NoError(t, err)
			require.Len(t, feed.Entries, 1)
			assert.Equal(t, tt.expected, feed.Entries[0].Body)
		})
	}
}

func TestBuildEmptyTagField(t *testing.T) {
	store := singleUserStore(1)
	store.articles[0].Tags = ""

	feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.Atom)
	require.NoError(t, err)
	require.Len(t, feed.Entries, 1)
	assert.Empty(t, feed.Entries[0].Categories)
}

func TestSingleUserAuthorResolvedOnce(t *testing.T) {
	store := singleUserStore(8)
	// The sole user wrote the first article; later articles carry stale emails
	for i := range store.articles {
		if i < 6 {
			store.articles[i].AuthorEmail = "old@b3log.org"
		}
	}

	feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.Atom)
	require.NoError(t, err)
	require.NotEmpty(t, feed.Entries)

	for _, entry := range feed.Entries {
		assert.Equal(t, "Admin", entry.Author)
	}
	assert.Equal(t, 1, store.emailLookups)
}

func TestSingleUserAuthorFailsSoftly(t *testing.T) {
	store := singleUserStore(3)
	// No matching email and no admin to fall back to
	store.users[0].Email = "someone@b3log.org"
	store.users[0].Role = models.DefaultRole

	feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.RSS)
	require.NoError(t, err)
	require.NotEmpty(t, feed.Entries)

	for _, entry := range feed.Entries {
		assert.Equal(t, "", entry.Author)
	}
}

func TestSingleUserNoArticles(t *testing.T) {
	store := singleUserStore(0)

	feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.Atom)
	require.NoError(t, err)
	assert.Empty(t, feed.Entries)
	assert.Equal(t, 0, store.emailLookups)
}

func TestMultipleUsersResolvePerEntry(t *testing.T) {
	store := singleUserStore(0)
	store.users = append(store.users, models.User{Id: "2", Name: "Writer", Email: "writer@b3log.org", Role: models.DefaultRole})
	store.articles = []models.Article{
		newArticle(1, true, "admin@b3log.org"),
		newArticle(2, true, "writer@b3log.org"),
		newArticle(3, true, "gone@b3log.org"),
	}

	feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.RSS)
	require.NoError(t, err)
	require.Len(t, feed.Entries, 3)

	// Newest first; the unknown author falls back to the admin
	assert.Equal(t, "Admin", feed.Entries[0].Author)
	assert.Equal(t, "Writer", feed.Entries[1].Author)
	assert.Equal(t, "Admin", feed.Entries[2].Author)
}

func TestMultipleUsersAuthorFailurePropagates(t *testing.T) {
	store := singleUserStore(0)
	store.users = []models.User{
		{Id: "1", Name: "A", Email: "a@b3log.org", Role: models.DefaultRole},
		{Id: "2", Name: "B", Email: "b@b3log.org", Role: models.DefaultRole},
	}
	store.articles = []models.Article{newArticle(1, true, "gone@b3log.org")}

	_, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.Atom)
	require.Error(t, err)
	assert.Equal(t, feeds.ServiceUnavailable, feeds.KindOf(err))
}

func TestBuildSiteFeedErrors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*fakeStore)
		format   feeds.Format
		expected feeds.ErrorKind
	}{
		{
			name:     "atom without preference",
			setup:    func(s *fakeStore) { s.pref = nil },
			format:   feeds.Atom,
			expected: feeds.ServiceUnavailable,
		},
		{
			name:     "rss without preference",
			setup:    func(s *fakeStore) { s.pref = nil },
			format:   feeds.RSS,
			expected: feeds.NotFound,
		},
		{
			name:     "store unreachable",
			setup:    func(s *fakeStore) { s.articlesErr = errors.New("connection refused") },
			format:   feeds.Atom,
			expected: feeds.ServiceUnavailable,
		},
		{
			name:     "user count fails",
			setup:    func(s *fakeStore) { s.usersErr = errors.New("connection refused") },
			format:   feeds.RSS,
			expected: feeds.ServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := singleUserStore(2)
			tt.setup(store)

			feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), tt.format)
			require.Error(t, err)
			assert.Nil(t, feed)
			assert.Equal(t, tt.expected, feeds.KindOf(err))
		})
	}

	t.Run("missing preference is recognizable", func(t *testing.T) {
		store := singleUserStore(0)
		store.pref = nil
		_, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.RSS)
		assert.ErrorIs(t, err, feeds.ErrNoPreference)
	})
}

func tagStore() *fakeStore {
	store := singleUserStore(6)
	store.tags = map[string]models.Tag{
		"t1": {Id: "t1", Title: "Go"},
		"t2": {Id: "t2", Title: "Drafts"},
	}
	store.tagArticles = map[string][]string{
		// Articles 3 is a draft
		"t1": {store.articles[1].Id, store.articles[4].Id, store.articles[3].Id, store.articles[2].Id},
		"t2": {store.articles[3].Id},
	}
	return store
}

func TestBuildTagFeed(t *testing.T) {
	store := tagStore()

	for _, format := range []feeds.Format{feeds.Atom, feeds.RSS} {
		t.Run(format.String(), func(t *testing.T) {
			feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildTagFeed(context.Background(), "t1", format)
			require.NoError(t, err)

			assert.Equal(t, "Java 开源博客, Go", feed.Subtitle)
			require.Len(t, feed.Entries, 3)
			assert.Equal(t, []string{"Article 4", "Article 2", "Article 1"},
				[]string{feed.Entries[0].Title, feed.Entries[1].Title, feed.Entries[2].Title})
		})
	}

	feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildTagFeed(context.Background(), "t1", feeds.RSS)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/tag-articles-rss.do", feed.SelfLink)
}

func TestBuildTagFeedErrors(t *testing.T) {
	tests := []struct {
		name     string
		tagId    string
		setup    func(*fakeStore)
		expected feeds.ErrorKind
	}{
		{name: "missing tag id", tagId: "", expected: feeds.BadRequest},
		{name: "unknown tag", tagId: "nope", expected: feeds.NotFound},
		{name: "only drafts", tagId: "t2", expected: feeds.NotFound},
		{name: "no relations", tagId: "t1", setup: func(s *fakeStore) { s.tagArticles = nil }, expected: feeds.NotFound},
		{name: "no preference", tagId: "t1", setup: func(s *fakeStore) { s.pref = nil }, expected: feeds.NotFound},
		{name: "dangling relation", tagId: "t1", setup: func(s *fakeStore) { s.tagArticles["t1"] = []string{"missing"} }, expected: feeds.ServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tagStore()
			if tt.setup != nil {
				tt.setup(store)
			}

			_, err := feeds.NewAssembler(store, store, "0.4.6").BuildTagFeed(context.Background(), tt.tagId, feeds.Atom)
			require.Error(t, err)
			assert.Equal(t, tt.expected, feeds.KindOf(err))
		})
	}
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, feeds.ServiceUnavailable, feeds.KindOf(errors.New("boom")))
	assert.Equal(t, "not found", feeds.NotFound.String())
}

func TestLanguage(t *testing.T) {
	tests := []struct {
		locale   string
		expected string
	}{
		{locale: "zh_CN", expected: "zh-cn"},
		{locale: "en_US", expected: "en-us"},
		{locale: "ja_JP", expected: "ja-jp"},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			store := singleUserStore(0)
			store.pref.LocaleString = tt.locale

			feed, err := feeds.NewAssembler(store, store, "0.4.6").BuildSiteFeed(context.Background(), feeds.RSS)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, feed.Language)
		})
	}
}
