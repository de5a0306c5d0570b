package services

import (
	"errors"
	"testing"
	"time"

	"quill/internal/apperr"
	"quill/internal/models"
)

// searchFixture builds two published posts by different authors plus one
// draft that must never surface in search results.
func searchFixture(t *testing.T) (goPost, gardenPost *models.Post) {
	t.Helper()

	alice := createUser(t, "alice")
	bob := createUser(t, "bob")
	createCategory(t, "Technology")
	createCategory(t, "Life")
	createTag(t, "go")
	createTag(t, "web")

	var err error
	goPost, err = CreatePost(alice, PostInput{
		Title:    strPtr("Concurrency patterns"),
		Content:  strPtr("channels and goroutines in practice"),
		Category: strPtr("Technology"),
		Tags:     tagsPtr("go"),
	})
	if err != nil {
		t.Fatalf("fixture create failed: %v", err)
	}
	if goPost, err = PublishPost(goPost.ID, alice); err != nil {
		t.Fatalf("fixture publish failed: %v", err)
	}
	publishAt(t, goPost, time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC))

	gardenPost, err = CreatePost(bob, PostInput{
		Title:    strPtr("Allotment notes"),
		Content:  strPtr("tomatoes need water and patience"),
		Category: strPtr("Life"),
		Tags:     tagsPtr("web"),
	})
	if err != nil {
		t.Fatalf("fixture create failed: %v", err)
	}
	if gardenPost, err = PublishPost(gardenPost.ID, bob); err != nil {
		t.Fatalf("fixture publish failed: %v", err)
	}
	publishAt(t, gardenPost, time.Date(2026, 1, 11, 12, 0, 0, 0, time.UTC))

	if _, err := CreatePost(alice, PostInput{
		Title:    strPtr("Goroutine secrets draft"),
		Content:  strPtr("unfinished thoughts on scheduling"),
		Category: strPtr("Technology"),
	}); err != nil {
		t.Fatalf("fixture draft failed: %v", err)
	}

	return goPost, gardenPost
}

func titles(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func TestSearchFreeText(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	// Matches title or content, drafts excluded.
	posts, err := SearchPosts(SearchParams{Query: "goroutines"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("expected the concurrency post, got %v", titles(posts))
	}

	// Matches the author's username too.
	posts, err = SearchPosts(SearchParams{Query: "BOB"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Allotment notes" {
		t.Errorf("expected bob's post via username match, got %v", titles(posts))
	}
}

// LIKE metacharacters in the free-text query match themselves, not
// wildcards.
func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	setupTestDB(t)
	alice := createUser(t, "alice")
	tech := createCategory(t, "Technology")

	percent := createPublished(t, alice, tech, "100% test coverage")
	createPublished(t, alice, tech, "100 ways to test")
	underscore := createPublished(t, alice, tech, "snake_case naming")
	createPublished(t, alice, tech, "snakeXcase naming")

	posts, err := SearchPosts(SearchParams{Query: "100%"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != percent.ID {
		t.Errorf("query %q: expected only the literal-percent post, got %d posts", "100%", len(posts))
	}

	posts, err = SearchPosts(SearchParams{Query: "snake_case"})
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != underscore.ID {
		t.Errorf("query %q: expected only the literal-underscore post, got %d posts", "snake_case", len(posts))
	}
}

func TestSearchExactAxes(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	posts, err := SearchPosts(SearchParams{Author: "ALICE"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("author filter: got %v", titles(posts))
	}

	posts, err = SearchPosts(SearchParams{Category: "technology"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("category filter: got %v", titles(posts))
	}

	posts, err = SearchPosts(SearchParams{Tag: "WEB"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Allotment notes" {
		t.Errorf("tag filter: got %v", titles(posts))
	}

	posts, err = SearchPosts(SearchParams{PublishedDate: "2026-01-10"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("date filter: got %v", titles(posts))
	}
}

func TestSearchCombinesWithAnd(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	posts, err := SearchPosts(SearchParams{Author: "alice", Tag: "go"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Errorf("expected one match for alice+go, got %v", titles(posts))
	}

	// Conflicting filters AND together to an empty, valid result.
	posts, err = SearchPosts(SearchParams{Author: "alice", Tag: "web"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected no matches for alice+web, got %v", titles(posts))
	}
}

func TestSearchNoParamsReturnsAllPublished(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	posts, err := SearchPosts(SearchParams{})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Errorf("expected both published posts, got %v", titles(posts))
	}
}

func TestSearchSort(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	posts, err := SearchPosts(SearchParams{Sort: "title"})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "Allotment notes" {
		t.Errorf("expected title-ascending order, got %v", titles(posts))
	}

	// Default sort is published_at ascending.
	posts, err = SearchPosts(SearchParams{})
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(posts) != 2 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("expected published_at-ascending order, got %v", titles(posts))
	}

	if _, err := SearchPosts(SearchParams{Sort: "score"}); err == nil {
		t.Error("expected validation error for unknown sort key")
	}
}

func TestSearchRejectsBadDate(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	_, err := SearchPosts(SearchParams{PublishedDate: "10/01/2026"})
	var validationErr *apperr.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestConvenienceFiltersDistinguishMissingFromEmpty(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)
	empty := createCategory(t, "Empty")

	// Unknown entity id: 404 semantics.
	var notFoundErr *apperr.NotFoundError
	if _, err := PostsByCategoryID(9999); !errors.As(err, &notFoundErr) {
		t.Errorf("expected not found for unknown category id, got %v", err)
	}
	if _, err := PostsByCategoryName("Nope"); !errors.As(err, &notFoundErr) {
		t.Errorf("expected not found for unknown category name, got %v", err)
	}
	if _, err := PostsByTagName("zz"); !errors.As(err, &notFoundErr) {
		t.Errorf("expected not found for unmatched tag fragment, got %v", err)
	}
	if _, err := PostsByAuthor("charlie"); !errors.As(err, &notFoundErr) {
		t.Errorf("expected not found for unknown author, got %v", err)
	}

	// Known entity with zero posts: valid empty result.
	posts, err := PostsByCategoryID(empty.ID)
	if err != nil {
		t.Fatalf("PostsByCategoryID failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("expected empty result, got %v", titles(posts))
	}
}

func TestConvenienceFiltersMatch(t *testing.T) {
	setupTestDB(t)
	searchFixture(t)

	posts, err := PostsByCategoryName("LIFE")
	if err != nil {
		t.Fatalf("PostsByCategoryName failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Allotment notes" {
		t.Errorf("category name filter: got %v", titles(posts))
	}

	// Substring fragment "o" matches the "go" tag.
	posts, err = PostsByTagName("o")
	if err != nil {
		t.Fatalf("PostsByTagName failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("tag fragment filter: got %v", titles(posts))
	}

	posts, err = PostsByAuthor("Alice")
	if err != nil {
		t.Fatalf("PostsByAuthor failed: %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "Concurrency patterns" {
		t.Errorf("author filter: got %v", titles(posts))
	}
}
