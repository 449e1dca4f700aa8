package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"solo/models"
	"strings"
	"time"

	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"
)

var articleColumns = []string{
	"id", "title", "content", "abstract", "tags", "permalink",
	"author_email", "is_published", "created_at", "updated_at",
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row scanner) (models.Article, error) {
	var article models.Article
	var createdAt, updatedAt int64

	err := row.Scan(
		&article.Id,
		&article.Title,
		&article.Content,
		&article.Abstract,
		&article.Tags,
		&article.Permalink,
		&article.AuthorEmail,
		&article.IsPublished,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return models.Article{}, err
	}

	article.CreatedAt = fromMillis(createdAt)
	article.UpdatedAt = fromMillis(updatedAt)
	return article, nil
}

// SplitTags splits a comma separated tag field into trimmed, unique titles
func SplitTags(tags string) []string {
	titles := lo.Map(strings.Split(tags, ","), func(title string, _ int) string {
		return strings.TrimSpace(title)
	})
	return lo.Uniq(lo.Compact(titles))
}

// Read operations

// GetPublishedArticles returns the first page of published articles, newest
// update first. Articles sharing an update time are ordered by id, newest first.
func (db *DB) GetPublishedArticles(ctx context.Context, limit int) ([]models.Article, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select(articleColumns...).From("articles")
	sb.Where(sb.Equal("is_published", true))
	sb.OrderBy("updated_at DESC", "id DESC")
	sb.Limit(limit)

	query, args := sb.Build()

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	articles := []models.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		articles = append(articles, article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return articles, nil
}

func (db *DB) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select(articleColumns...).From("articles").Where(sb.Equal("id", id))

	query, args := sb.Build()

	article, err := scanArticle(db.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &article, nil
}

// GetArticleIdsByTag returns up to limit ids of articles related to the tag,
// most recently created first
func (db *DB) GetArticleIdsByTag(ctx context.Context, tagId string, limit int) ([]string, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("article_id").From("tag_article")
	sb.Where(sb.Equal("tag_id", tagId))
	sb.OrderBy("article_id").Desc()
	sb.Limit(limit)

	query, args := sb.Build()

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return ids, nil
}

// Write operations

func validateArticle(article *models.Article) error {
	switch {
	case strings.TrimSpace(article.Title) == "":
		return errors.New("article title is required")
	case strings.TrimSpace(article.AuthorEmail) == "":
		return errors.New("article author email is required")
	}
	return nil
}

// CreateArticle stores a new article together with its tags and returns its id
func (db *DB) CreateArticle(ctx context.Context, article models.Article) (string, error) {
	if err := validateArticle(&article); err != nil {
		return "", err
	}

	now := time.Now()
	if article.Id == "" {
		article.Id = NewId()
	}
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	if article.UpdatedAt.IsZero() {
		article.UpdatedAt = article.CreatedAt
	}
	if article.Permalink == "" {
		article.Permalink = fmt.Sprintf("/articles/%s/%s.html", article.CreatedAt.Format("2006/01/02"), article.Id)
	}

	titles := SplitTags(article.Tags)
	article.Tags = strings.Join(titles, ",")
	article.AuthorEmail = strings.ToLower(strings.TrimSpace(article.AuthorEmail))

	log.WithFields(log.Fields{
		"id":        article.Id,
		"permalink": article.Permalink,
		"tags":      titles,
		"published": article.IsPublished,
	}).Info("Creating article")

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		ib := db.flavor.NewInsertBuilder()
		ib.InsertInto("articles").Cols(articleColumns...).Values(
			article.Id,
			article.Title,
			article.Content,
			article.Abstract,
			article.Tags,
			article.Permalink,
			article.AuthorEmail,
			article.IsPublished,
			toMillis(article.CreatedAt),
			toMillis(article.UpdatedAt),
		)

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert error: %w", err)
		}

		return db.addTags(ctx, tx, article.Id, titles)
	})
	if err != nil {
		return "", err
	}

	return article.Id, nil
}

// UpdateArticle replaces the stored article and its tag relations. The update
// time is set to now.
func (db *DB) UpdateArticle(ctx context.Context, article models.Article) error {
	if err := validateArticle(&article); err != nil {
		return err
	}

	titles := SplitTags(article.Tags)
	article.Tags = strings.Join(titles, ",")
	article.UpdatedAt = time.Now()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		ub := db.flavor.NewUpdateBuilder()
		ub.Update("articles").Set(
			ub.Assign("title", article.Title),
			ub.Assign("content", article.Content),
			ub.Assign("abstract", article.Abstract),
			ub.Assign("tags", article.Tags),
			ub.Assign("author_email", strings.ToLower(strings.TrimSpace(article.AuthorEmail))),
			ub.Assign("is_published", article.IsPublished),
			ub.Assign("updated_at", toMillis(article.UpdatedAt)),
		)
		if article.Permalink != "" {
			ub.SetMore(ub.Assign("permalink", article.Permalink))
		}
		ub.Where(ub.Equal("id", article.Id))

		query, args := ub.Build()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("update error: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.ErrNotFound
		}

		oldTagIds, err := db.removeTags(ctx, tx, article.Id)
		if err != nil {
			return err
		}
		if err := db.addTags(ctx, tx, article.Id, titles); err != nil {
			return err
		}
		return db.pruneTags(ctx, tx, oldTagIds)
	})
}

func (db *DB) DeleteArticle(ctx context.Context, id string) error {
	log.WithFields(log.Fields{
		"id": id,
	}).Info("Deleting article")

	return db.withTx(ctx, func(tx *sql.Tx) error {
		tagIds, err := db.removeTags(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := db.pruneTags(ctx, tx, tagIds); err != nil {
			return err
		}

		del := db.flavor.NewDeleteBuilder()
		del.DeleteFrom("articles").Where(del.Equal("id", id))

		query, args := del.Build()
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete error: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.ErrNotFound
		}
		return nil
	})
}

// addTags relates the article to each tag title, creating missing tags
func (db *DB) addTags(ctx context.Context, tx *sql.Tx, articleId string, titles []string) error {
	for _, title := range titles {
		tag, err := db.getTagByTitle(ctx, tx, title)
		switch {
		case errors.Is(err, models.ErrNotFound):
			tag = &models.Tag{Id: NewId(), Title: title, ReferenceCount: 1}

			ib := db.flavor.NewInsertBuilder()
			ib.InsertInto("tags").Cols("id", "title", "reference_count").Values(tag.Id, tag.Title, tag.ReferenceCount)

			query, args := ib.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("insert tag error: %w", err)
			}
		case err != nil:
			return err
		default:
			ub := db.flavor.NewUpdateBuilder()
			ub.Update("tags").Set(ub.Incr("reference_count")).Where(ub.Equal("id", tag.Id))

			query, args := ub.Build()
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("update tag error: %w", err)
			}
		}

		ib := db.flavor.NewInsertBuilder()
		ib.InsertInto("tag_article").Cols("tag_id", "article_id").Values(tag.Id, articleId)

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert tag relation error: %w", err)
		}
	}

	return nil
}

// removeTags drops the article's tag relations and returns the related tag ids
func (db *DB) removeTags(ctx context.Context, tx *sql.Tx, articleId string) ([]string, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("tag_id").From("tag_article").Where(sb.Equal("article_id", articleId))

	query, args := sb.Build()
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	var tagIds []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan error: %w", err)
		}
		tagIds = append(tagIds, id)
	}
	rows.Close()

	if len(tagIds) == 0 {
		return nil, nil
	}

	del := db.flavor.NewDeleteBuilder()
	del.DeleteFrom("tag_article").Where(del.Equal("article_id", articleId))

	query, args = del.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("delete tag relations error: %w", err)
	}

	ub := db.flavor.NewUpdateBuilder()
	ub.Update("tags").Set(ub.Decr("reference_count")).Where(ub.In("id", lo.ToAnySlice(tagIds)...))

	query, args = ub.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("update tags error: %w", err)
	}

	return tagIds, nil
}

// pruneTags deletes the given tags once nothing references them
func (db *DB) pruneTags(ctx context.Context, tx *sql.Tx, tagIds []string) error {
	if len(tagIds) == 0 {
		return nil
	}

	del := db.flavor.NewDeleteBuilder()
	del.DeleteFrom("tags").Where(
		del.In("id", lo.ToAnySlice(tagIds)...),
		del.LessEqualThan("reference_count", 0),
	)

	query, args := del.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("prune tags error: %w", err)
	}
	return nil
}
