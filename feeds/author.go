package feeds

import (
	"context"
	"errors"
	"fmt"
	"solo/models"
)

// UserStore is the part of the store the AuthorResolver reads
type UserStore interface {
	CountUsers(ctx context.Context) (int, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAdmin(ctx context.Context) (*models.User, error)
}

// AuthorResolver maps an article to the display name of its author
type AuthorResolver struct {
	users UserStore
}

func NewAuthorResolver(users UserStore) *AuthorResolver {
	return &AuthorResolver{users: users}
}

// HasMultipleUsers reports whether more than one user is registered
func (r *AuthorResolver) HasMultipleUsers(ctx context.Context) (bool, error) {
	count, err := r.users.CountUsers(ctx)
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 1, nil
}

// Resolve returns the name of the user with the article's author email. Articles
// whose author no longer exists are attributed to the admin.
func (r *AuthorResolver) Resolve(ctx context.Context, article *models.Article) (string, error) {
	user, err := r.users.GetUserByEmail(ctx, article.AuthorEmail)
	if errors.Is(err, models.ErrNotFound) {
		user, err = r.users.GetAdmin(ctx)
	}
	if err != nil {
		return "", fmt.Errorf("resolve author of article %s: %w", article.Id, err)
	}
	return user.Name, nil
}
