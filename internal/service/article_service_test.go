package service_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/conduit-article-api/internal/database"
	"github.com/conduit-article-api/internal/mocks"
	"github.com/conduit-article-api/internal/models"
	"github.com/conduit-article-api/internal/service"
	"github.com/rs/zerolog"
)

func newFixture(t *testing.T) (*mocks.Store, *service.Services) {
	t.Helper()
	store := mocks.NewStore()
	store.AddUser("user-jane", "jane")
	store.AddUser("user-john", "john")
	return store, service.NewServices(store.Repos(), zerolog.Nop())
}

func strPtr(s string) *string { return &s }

func TestCreate_DerivesSlugFromTitle(t *testing.T) {
	_, svcs := newFixture(t)
	ctx := context.Background()

	a, err := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title:       "Hello World",
		Description: "greeting",
		Body:        "hi there",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if a.Slug != "hello-world" {
		t.Errorf("Expected slug hello-world, got %q", a.Slug)
	}
	if a.Favorited || a.Author.Following {
		t.Errorf("Expected both flags false on creation, got favorited=%v following=%v",
			a.Favorited, a.Author.Following)
	}
	if a.FavoritesCount != 0 {
		t.Errorf("Expected favoritesCount 0, got %d", a.FavoritesCount)
	}
	if a.Author.Username != "jane" {
		t.Errorf("Expected author jane, got %q", a.Author.Username)
	}
}

func TestCreate_SlugCollisionRetriesWithSuffix(t *testing.T) {
	_, svcs := newFixture(t)
	ctx := context.Background()
	in := &models.ArticleInput{Title: "Hello World", Description: "d", Body: "b"}

	first, err := svcs.Article.Create(ctx, "user-jane", in)
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	second, err := svcs.Article.Create(ctx, "user-john", in)
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	if first.Slug != "hello-world" {
		t.Errorf("Expected first slug hello-world, got %q", first.Slug)
	}
	pattern := regexp.MustCompile(`^hello-world-[0-9a-z]{6}$`)
	if !pattern.MatchString(second.Slug) {
		t.Errorf("Expected second slug to match hello-world-XXXXXX, got %q", second.Slug)
	}
}

func TestCreate_SecondCollisionIsConflict(t *testing.T) {
	store, svcs := newFixture(t)
	store.ArticleInsertErr = database.ErrUniqueViolation

	_, err := svcs.Article.Create(context.Background(), "user-jane",
		&models.ArticleInput{Title: "Hello", Description: "d", Body: "b"})

	var conflict *models.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("Expected ConflictError after two collisions, got %v", err)
	}
	if store.ArticleInsertCalls != 2 {
		t.Errorf("Expected exactly 2 insert attempts (one retry), got %d", store.ArticleInsertCalls)
	}
}

func TestCreate_OpaqueStoreErrorPropagates(t *testing.T) {
	store, svcs := newFixture(t)
	boom := errors.New("connection reset")
	store.ArticleInsertErr = boom

	_, err := svcs.Article.Create(context.Background(), "user-jane",
		&models.ArticleInput{Title: "Hello", Description: "d", Body: "b"})
	if !errors.Is(err, boom) {
		t.Errorf("Expected store error to propagate unmodified, got %v", err)
	}
	if store.ArticleInsertCalls != 1 {
		t.Errorf("Non-collision errors must not retry, got %d attempts", store.ArticleInsertCalls)
	}
}

func TestCreate_ValidationReportsAllFields(t *testing.T) {
	_, svcs := newFixture(t)

	_, err := svcs.Article.Create(context.Background(), "user-jane", &models.ArticleInput{})

	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Errorf("Expected title, description, and body all reported, got %v", verr.Fields)
	}
}

func TestCreate_WithTags(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a, err := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title:       "Tagged",
		Description: "d",
		Body:        "b",
		TagList:     []string{"lorem", "dolor"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(a.TagList) != 2 {
		t.Fatalf("Expected 2 tags, got %v", a.TagList)
	}
	got := map[string]bool{a.TagList[0]: true, a.TagList[1]: true}
	if !got["lorem"] || !got["dolor"] {
		t.Errorf("Expected tags lorem and dolor, got %v", a.TagList)
	}
	if a.FavoritesCount != 0 || a.Favorited {
		t.Errorf("Expected count 0 and favorited false, got %d/%v", a.FavoritesCount, a.Favorited)
	}
	if len(store.Tags) != 2 {
		t.Errorf("Expected 2 tag rows, got %d", len(store.Tags))
	}
}

func TestCreate_SharedTagYieldsSingleRow(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a1, err := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "First", Description: "d", Body: "b", TagList: []string{"shared"},
	})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	a2, err := svcs.Article.Create(ctx, "user-john", &models.ArticleInput{
		Title: "Second", Description: "d", Body: "b", TagList: []string{"shared"},
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	if len(store.Tags) != 1 {
		t.Fatalf("Expected exactly one tag row for %q, got %d", "shared", len(store.Tags))
	}
	for _, a := range []*models.Article{a1, a2} {
		if len(a.TagList) != 1 || a.TagList[0] != "shared" {
			t.Errorf("Expected article %q to reference the shared tag, got %v", a.Slug, a.TagList)
		}
	}
}

func TestFavorite_CounterTracksDistinctUsers(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a, err := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "Popular", Description: "d", Body: "b",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// A favorites: 0 -> 1, favorited for A
	got, err := svcs.Article.Favorite(ctx, a.Slug, "user-john")
	if err != nil {
		t.Fatalf("Favorite failed: %v", err)
	}
	if got.FavoritesCount != 1 || !got.Favorited {
		t.Errorf("Expected count 1 favorited true, got %d/%v", got.FavoritesCount, got.Favorited)
	}

	// B fetches and sees the count but not A's flag
	asJane, err := svcs.Article.Get(ctx, a.Slug, "user-jane")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if asJane.FavoritesCount != 1 || asJane.Favorited {
		t.Errorf("Expected count 1 favorited false for other viewer, got %d/%v",
			asJane.FavoritesCount, asJane.Favorited)
	}

	// Anonymous viewer sees both flags false
	anon, err := svcs.Article.Get(ctx, a.Slug, "")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if anon.Favorited || anon.Author.Following {
		t.Errorf("Expected anonymous flags false, got favorited=%v following=%v",
			anon.Favorited, anon.Author.Following)
	}

	// Favoriting again is a no-op
	got, err = svcs.Article.Favorite(ctx, a.Slug, "user-john")
	if err != nil {
		t.Fatalf("repeat Favorite failed: %v", err)
	}
	if got.FavoritesCount != 1 {
		t.Errorf("Repeat favorite must not bump the counter, got %d", got.FavoritesCount)
	}

	// Unfavorite: 1 -> 0, then a no-op
	got, err = svcs.Article.Unfavorite(ctx, a.Slug, "user-john")
	if err != nil {
		t.Fatalf("Unfavorite failed: %v", err)
	}
	if got.FavoritesCount != 0 || got.Favorited {
		t.Errorf("Expected count 0 favorited false, got %d/%v", got.FavoritesCount, got.Favorited)
	}
	got, err = svcs.Article.Unfavorite(ctx, a.Slug, "user-john")
	if err != nil {
		t.Fatalf("repeat Unfavorite failed: %v", err)
	}
	if got.FavoritesCount != 0 {
		t.Errorf("Repeat unfavorite must not touch the counter, got %d", got.FavoritesCount)
	}

	// Counter equals distinct favorite rows throughout
	if n := len(store.Favorites[a.ID]); n != 0 {
		t.Errorf("Expected 0 favorite rows, got %d", n)
	}
}

func TestUpdate_OwnershipEnforced(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a, err := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "Owned", Description: "d", Body: "b",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = svcs.Article.Update(ctx, a.Slug, "user-john", &models.ArticleUpdate{
		Title: strPtr("Hijacked"),
	})
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Expected ValidationError for non-author, got %v", err)
	}
	if verr.Fields[0].Field != "article" {
		t.Errorf("Expected offending field %q, got %q", "article", verr.Fields[0].Field)
	}

	// Store state unchanged
	row, _ := store.GetRowBySlug(ctx, a.Slug)
	if row == nil || row.Title != "Owned" {
		t.Errorf("Store must be untouched after ownership failure, got %+v", row)
	}

	if err := svcs.Article.Delete(ctx, a.Slug, "user-john"); !errors.As(err, &verr) {
		t.Errorf("Expected ValidationError on non-author delete, got %v", err)
	}
	if _, ok := store.Articles[a.ID]; !ok {
		t.Error("Article must survive a rejected delete")
	}
}

func TestUpdate_TitleChangeRecomputesSlug(t *testing.T) {
	_, svcs := newFixture(t)
	ctx := context.Background()

	a, _ := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "Old Title", Description: "d", Body: "b",
	})

	updated, err := svcs.Article.Update(ctx, a.Slug, "user-jane", &models.ArticleUpdate{
		Title: strPtr("New Title"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != "new-title" {
		t.Errorf("Expected recomputed slug new-title, got %q", updated.Slug)
	}

	// Body-only update keeps the slug
	updated, err = svcs.Article.Update(ctx, updated.Slug, "user-jane", &models.ArticleUpdate{
		Body: strPtr("rewritten"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Slug != "new-title" {
		t.Errorf("Slug must not change without a title change, got %q", updated.Slug)
	}
	if updated.Body != "rewritten" {
		t.Errorf("Expected merged body, got %q", updated.Body)
	}
}

func TestUpdate_UnchangedTagListShortCircuits(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a, err := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "Tagged", Description: "d", Body: "b", TagList: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	replacesAfterCreate := store.ReplaceTagCalls

	// Same set, different order: symmetric difference is empty
	_, err = svcs.Article.Update(ctx, a.Slug, "user-jane", &models.ArticleUpdate{
		TagList: &[]string{"b", "a"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if store.ReplaceTagCalls != replacesAfterCreate {
		t.Errorf("Identical tag set must not trigger reassociation (calls %d -> %d)",
			replacesAfterCreate, store.ReplaceTagCalls)
	}
}

func TestUpdate_TagListSemantics(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a, _ := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "Tagged", Description: "d", Body: "b", TagList: []string{"a", "b"},
	})

	// Absent field leaves tags untouched
	got, err := svcs.Article.Update(ctx, a.Slug, "user-jane", &models.ArticleUpdate{
		Body: strPtr("new"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(got.TagList) != 2 {
		t.Errorf("Absent tagList must leave tags untouched, got %v", got.TagList)
	}

	// Different set replaces
	got, err = svcs.Article.Update(ctx, a.Slug, "user-jane", &models.ArticleUpdate{
		TagList: &[]string{"a", "c"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	tags := map[string]bool{}
	for _, n := range got.TagList {
		tags[n] = true
	}
	if len(got.TagList) != 2 || !tags["a"] || !tags["c"] {
		t.Errorf("Expected tag set {a,c}, got %v", got.TagList)
	}

	// Tag b survives as a row even though nothing references it
	if _, ok := store.Tags["b"]; !ok {
		t.Error("Tags are append-only; dereferenced tag rows must survive")
	}

	// Empty list clears all associations
	got, err = svcs.Article.Update(ctx, a.Slug, "user-jane", &models.ArticleUpdate{
		TagList: &[]string{},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if len(got.TagList) != 0 {
		t.Errorf("Empty tagList must clear associations, got %v", got.TagList)
	}
}

func TestDelete_RemovesAllArticleRows(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	a, _ := svcs.Article.Create(ctx, "user-jane", &models.ArticleInput{
		Title: "Doomed", Description: "d", Body: "b", TagList: []string{"t"},
	})
	if _, err := svcs.Article.Favorite(ctx, a.Slug, "user-john"); err != nil {
		t.Fatalf("Favorite failed: %v", err)
	}

	if err := svcs.Article.Delete(ctx, a.Slug, "user-jane"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, ok := store.Articles[a.ID]; ok {
		t.Error("Article row must be gone")
	}
	if len(store.ArticleTags[a.ID]) != 0 {
		t.Error("Tag associations must be gone")
	}
	if len(store.Favorites[a.ID]) != 0 {
		t.Error("Favorite rows must be gone")
	}

	if _, err := svcs.Article.Get(ctx, a.Slug, ""); err == nil {
		t.Error("Expected NotFound after delete")
	}
}

func TestGet_NotFound(t *testing.T) {
	_, svcs := newFixture(t)

	_, err := svcs.Article.Get(context.Background(), "no-such-slug", "")
	var nf *models.NotFoundError
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError, got %v", err)
	}

	_, err = svcs.Article.Favorite(context.Background(), "no-such-slug", "user-jane")
	if !errors.As(err, &nf) {
		t.Errorf("Expected NotFoundError before any mutation, got %v", err)
	}
}

func TestList_FiltersAndCount(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	// Seed rows directly with explicit timestamps so ordering is fixed
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, tc := range []struct {
		id, slug, author string
	}{
		{"a1", "one", "user-jane"},
		{"a2", "two", "user-jane"},
		{"a3", "three", "user-john"},
	} {
		store.Insert(ctx, &models.ArticleRow{
			ID: tc.id, Slug: tc.slug, Title: tc.slug, Description: "d", Body: "b",
			AuthorID: tc.author, CreatedAt: base.Add(time.Duration(i) * time.Hour),
			UpdatedAt: base,
		})
	}

	articles, count, err := svcs.Article.List(ctx, service.ListRequest{
		Authors: []string{"jane"}, Limit: 20,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if count != 2 || len(articles) != 2 {
		t.Fatalf("Expected 2 jane articles, got %d (count %d)", len(articles), count)
	}
	if articles[0].Slug != "two" || articles[1].Slug != "one" {
		t.Errorf("Expected creation-time-descending order, got [%s, %s]",
			articles[0].Slug, articles[1].Slug)
	}

	// Count stays at the unpaginated total
	articles, count, err = svcs.Article.List(ctx, service.ListRequest{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Count must ignore pagination, got %d", count)
	}
	if len(articles) != 1 {
		t.Errorf("Expected page of 1, got %d", len(articles))
	}

	// Unknown filter values produce an empty page, not an error
	articles, count, err = svcs.Article.List(ctx, service.ListRequest{
		Authors: []string{"nobody"}, Limit: 20,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if count != 0 || len(articles) != 0 {
		t.Errorf("Expected empty result for unknown author, got %d/%d", len(articles), count)
	}
}

func TestFeed_FollowedAuthorsOnly(t *testing.T) {
	store, svcs := newFixture(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store.Insert(ctx, &models.ArticleRow{
		ID: "a1", Slug: "by-jane", Title: "t", Description: "d", Body: "b",
		AuthorID: "user-jane", CreatedAt: base, UpdatedAt: base,
	})
	store.Insert(ctx, &models.ArticleRow{
		ID: "a2", Slug: "by-john", Title: "t", Description: "d", Body: "b",
		AuthorID: "user-john", CreatedAt: base.Add(time.Hour), UpdatedAt: base,
	})

	store.AddUser("user-viewer", "viewer")
	if _, err := svcs.Profile.Follow(ctx, "user-viewer", "jane"); err != nil {
		t.Fatalf("Follow failed: %v", err)
	}

	articles, count, err := svcs.Article.Feed(ctx, "user-viewer", 20, 0)
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if count != 1 || len(articles) != 1 || articles[0].Slug != "by-jane" {
		t.Errorf("Expected only jane's article in the feed, got %v (count %d)", articles, count)
	}
	if !articles[0].Author.Following {
		t.Error("Feed entries are authored by followed users; following must be true")
	}
}
