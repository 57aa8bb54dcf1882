// Package mocks provides an in-memory store double implementing the
// repository interfaces. It enforces the same unique constraints as the
// real schema, signalling collisions with database.ErrUniqueViolation so
// services exercise their collision handling against it.
package mocks

import (
	"context"
	"sort"

	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/query"
	"github.com/conduit-article-api/internal/repository"
)

var (
	_ repository.ArticleRepository = (*Store)(nil)
	_ repository.TagRepository     = (*Store)(nil)
	_ repository.UserRepository    = (*Store)(nil)
)

// Store is an in-memory stand-in for all repositories. State is exported
// so tests can seed and inspect it directly; the error fields force
// failures on specific operations.
type Store struct {
	Users       map[string]*models.UserRow    // by id
	Articles    map[string]*models.ArticleRow // by id
	Tags        map[string]*models.TagRow     // by name
	ArticleTags map[string][]string           // article id -> tag ids
	Favorites   map[string]map[string]bool    // article id -> favoriting user ids
	Follows     map[string]map[string]bool    // follower id -> followed ids

	ArticleInsertErr error // returned by every article Insert when set
	ArticleUpdateErr error // returned by every article Update when set
	TagInsertErr     error // returned by every tag Insert when set

	ArticleInsertCalls int
	ReplaceTagCalls    int

	order []string // article ids in insertion order
}

// NewStore creates an empty in-memory store
func NewStore() *Store {
	return &Store{
		Users:       make(map[string]*models.UserRow),
		Articles:    make(map[string]*models.ArticleRow),
		Tags:        make(map[string]*models.TagRow),
		ArticleTags: make(map[string][]string),
		Favorites:   make(map[string]map[string]bool),
		Follows:     make(map[string]map[string]bool),
	}
}

// Repos bundles the store behind every repository interface
func (m *Store) Repos() *repository.Repositories {
	return &repository.Repositories{Article: m, Tag: m, User: m}
}

// AddUser seeds a user and returns its row
func (m *Store) AddUser(id, username string) *models.UserRow {
	u := &models.UserRow{ID: id, Username: username}
	m.Users[id] = u
	return u
}

// ---- ArticleRepository ----

func (m *Store) Insert(ctx context.Context, row *models.ArticleRow) error {
	m.ArticleInsertCalls++
	if m.ArticleInsertErr != nil {
		return m.ArticleInsertErr
	}
	for _, a := range m.Articles {
		if a.Slug == row.Slug {
			return database.ErrUniqueViolation
		}
	}
	cp := *row
	m.Articles[row.ID] = &cp
	m.order = append(m.order, row.ID)
	return nil
}

func (m *Store) Update(ctx context.Context, row *models.ArticleRow) error {
	if m.ArticleUpdateErr != nil {
		return m.ArticleUpdateErr
	}
	for id, a := range m.Articles {
		if id != row.ID && a.Slug == row.Slug {
			return database.ErrUniqueViolation
		}
	}
	cp := *row
	cp.FavoritesCount = m.Articles[row.ID].FavoritesCount
	m.Articles[row.ID] = &cp
	return nil
}

func (m *Store) Delete(ctx context.Context, articleID string) error {
	delete(m.Articles, articleID)
	delete(m.ArticleTags, articleID)
	delete(m.Favorites, articleID)
	return nil
}

func (m *Store) GetRowBySlug(ctx context.Context, slug string) (*models.ArticleRow, error) {
	for _, a := range m.Articles {
		if a.Slug == slug {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) IsFavorited(ctx context.Context, articleID, userID string) (bool, error) {
	return m.Favorites[articleID][userID], nil
}

func (m *Store) Favorite(ctx context.Context, articleID, userID string) error {
	if m.Favorites[articleID] == nil {
		m.Favorites[articleID] = make(map[string]bool)
	}
	m.Favorites[articleID][userID] = true
	m.Articles[articleID].FavoritesCount++
	return nil
}

func (m *Store) Unfavorite(ctx context.Context, articleID, userID string) error {
	delete(m.Favorites[articleID], userID)
	m.Articles[articleID].FavoritesCount--
	return nil
}

func (m *Store) GetBySlug(ctx context.Context, slug, viewerID string) (*models.Article, error) {
	articles, _, err := m.List(ctx, query.Criteria{Slug: slug, Viewer: viewerID, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(articles) == 0 {
		return nil, nil
	}
	return articles[0], nil
}

// List mirrors the engine's read semantics over the in-memory state:
// filters narrow, the count ignores pagination, ordering is creation
// time descending.
func (m *Store) List(ctx context.Context, c query.Criteria) ([]*models.Article, int, error) {
	var rows []*models.ArticleRow
	for _, id := range m.order {
		a, ok := m.Articles[id]
		if !ok || !m.matches(a, c) {
			continue
		}
		rows = append(rows, a)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})

	total := len(rows)
	if c.Offset >= uint64(total) {
		rows = nil
	} else {
		rows = rows[c.Offset:]
	}
	if uint64(len(rows)) > c.Limit {
		rows = rows[:c.Limit]
	}

	out := make([]*models.Article, 0, len(rows))
	for _, a := range rows {
		out = append(out, m.materialize(a, c.Viewer))
	}
	return out, total, nil
}

func (m *Store) matches(a *models.ArticleRow, c query.Criteria) bool {
	if c.Slug != "" && a.Slug != c.Slug {
		return false
	}
	author := m.Users[a.AuthorID]
	if len(c.Authors) > 0 {
		if author == nil || !contains(c.Authors, author.Username) {
			return false
		}
	}
	if len(c.FavoritedBy) > 0 {
		found := false
		for uid := range m.Favorites[a.ID] {
			if u := m.Users[uid]; u != nil && contains(c.FavoritedBy, u.Username) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if len(c.Tags) > 0 {
		found := false
		for _, name := range m.tagNames(a.ID) {
			if contains(c.Tags, name) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.FeedFor != "" && !m.Follows[c.FeedFor][a.AuthorID] {
		return false
	}
	return true
}

func (m *Store) materialize(a *models.ArticleRow, viewerID string) *models.Article {
	out := &models.Article{
		ID:             a.ID,
		Slug:           a.Slug,
		Title:          a.Title,
		Description:    a.Description,
		Body:           a.Body,
		TagList:        m.tagNames(a.ID),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
		FavoritesCount: a.FavoritesCount,
	}
	if author := m.Users[a.AuthorID]; author != nil {
		following := viewerID != "" && m.Follows[viewerID][a.AuthorID]
		out.Author = author.Profile(following)
	}
	if viewerID != "" {
		out.Favorited = m.Favorites[a.ID][viewerID]
	}
	return out
}

func (m *Store) tagNames(articleID string) []string {
	names := []string{}
	for _, tagID := range m.ArticleTags[articleID] {
		for _, t := range m.Tags {
			if t.ID == tagID {
				names = append(names, t.Name)
			}
		}
	}
	return names
}

// ---- TagRepository ----

func (m *Store) Create(ctx context.Context, tag *models.TagRow) error {
	if m.TagInsertErr != nil {
		return m.TagInsertErr
	}
	if _, exists := m.Tags[tag.Name]; exists {
		return database.ErrUniqueViolation
	}
	cp := *tag
	m.Tags[tag.Name] = &cp
	return nil
}

func (m *Store) GetByNames(ctx context.Context, names []string) ([]*models.TagRow, error) {
	var out []*models.TagRow
	for _, name := range names {
		if t, ok := m.Tags[name]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *Store) Names(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(m.Tags))
	for name := range m.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Store) ArticleTagNames(ctx context.Context, articleID string) ([]string, error) {
	return m.tagNames(articleID), nil
}

func (m *Store) ReplaceArticleTags(ctx context.Context, articleID string, tagIDs []string) error {
	m.ReplaceTagCalls++
	m.ArticleTags[articleID] = append([]string(nil), tagIDs...)
	return nil
}

// ---- UserRepository ----

func (m *Store) GetByID(ctx context.Context, id string) (*models.UserRow, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *Store) GetByUsername(ctx context.Context, username string) (*models.UserRow, error) {
	for _, u := range m.Users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *Store) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	return m.Follows[followerID][followedID], nil
}

func (m *Store) Follow(ctx context.Context, followerID, followedID string) error {
	if m.Follows[followerID] == nil {
		m.Follows[followerID] = make(map[string]bool)
	}
	if m.Follows[followerID][followedID] {
		return database.ErrUniqueViolation
	}
	m.Follows[followerID][followedID] = true
	return nil
}

func (m *Store) Unfollow(ctx context.Context, followerID, followedID string) error {
	delete(m.Follows[followerID], followedID)
	return nil
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
