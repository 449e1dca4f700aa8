package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by the store when a requested row does not exist
var ErrNotFound = errors.New("not found")

const (
	AdminRole   = "adminRole"
	DefaultRole = "defaultRole"
)

// Feed output modes stored in the preference
const (
	FeedOutputAbstract    = "abstract"
	FeedOutputFullContent = "fullContent"
)

// Article with the fields needed by the feeds and the console
type Article struct {
	Id          string    `json:"oId"`
	Title       string    `json:"articleTitle"`
	Content     string    `json:"articleContent"`
	Abstract    string    `json:"articleAbstract"`
	Tags        string    `json:"articleTags"`
	Permalink   string    `json:"articlePermalink"`
	AuthorEmail string    `json:"articleAuthorEmail"`
	IsPublished bool      `json:"articleIsPublished"`
	CreatedAt   time.Time `json:"articleCreateDate"`
	UpdatedAt   time.Time `json:"articleUpdateDate"`
}

type Tag struct {
	Id             string `json:"oId"`
	Title          string `json:"tagTitle"`
	ReferenceCount int    `json:"tagReferenceCount"`
}

type User struct {
	Id       string `json:"oId"`
	Name     string `json:"userName"`
	Email    string `json:"userEmail"`
	Password string `json:"-"`
	Role     string `json:"userRole"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == AdminRole
}

type Link struct {
	Id          string `json:"oId"`
	Title       string `json:"linkTitle"`
	Address     string `json:"linkAddress"`
	Description string `json:"linkDescription"`
	Order       int    `json:"linkOrder"`
}

// Preference holds the blog-wide settings
type Preference struct {
	BlogTitle      string `json:"blogTitle"`
	BlogSubtitle   string `json:"blogSubtitle"`
	BlogHost       string `json:"blogHost"`
	TimeZoneId     string `json:"timeZoneId"`
	LocaleString   string `json:"localeString"`
	FeedOutputMode string `json:"feedOutputMode"`
}

func (p *Preference) IsFullContent() bool {
	return p.FeedOutputMode == FeedOutputFullContent
}

// Pagination is the console view of a paged result
type Pagination struct {
	PageCount int   `json:"paginationPageCount"`
	PageNums  []int `json:"paginationPageNums"`
}
