package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"solo/models"
)

func (db *DB) GetTag(ctx context.Context, id string) (*models.Tag, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("id", "title", "reference_count").From("tags").Where(sb.Equal("id", id))

	query, args := sb.Build()

	var tag models.Tag
	err := db.db.QueryRowContext(ctx, query, args...).Scan(&tag.Id, &tag.Title, &tag.ReferenceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &tag, nil
}

func (db *DB) getTagByTitle(ctx context.Context, q querier, title string) (*models.Tag, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("id", "title", "reference_count").From("tags").Where(sb.Equal("title", title))

	query, args := sb.Build()

	var tag models.Tag
	err := q.QueryRowContext(ctx, query, args...).Scan(&tag.Id, &tag.Title, &tag.ReferenceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}

	return &tag, nil
}

func (db *DB) GetTagByTitle(ctx context.Context, title string) (*models.Tag, error) {
	return db.getTagByTitle(ctx, db.db, title)
}

// GetTags returns all tags, most referenced first
func (db *DB) GetTags(ctx context.Context) ([]models.Tag, error) {
	sb := db.flavor.NewSelectBuilder()
	sb.Select("id", "title", "reference_count").From("tags")
	sb.OrderBy("reference_count DESC", "title ASC")

	query, args := sb.Build()

	rows, err := db.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	tags := []models.Tag{}
	for rows.Next() {
		var tag models.Tag
		if err := rows.Scan(&tag.Id, &tag.Title, &tag.ReferenceCount); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		tags = append(tags, tag)
	}

	return tags, rows.Err()
}
