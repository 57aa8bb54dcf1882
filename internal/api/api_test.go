package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/conduit-article-api/internal/api"
	"github.com/conduit-article-api/internal/config"
	"github.com/conduit-article-api/internal/mocks"
	"github.com/conduit-article-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testSecret = "test-secret"

func newServer(t *testing.T) (*mocks.Store, *gin.Engine) {
	t.Helper()
	store := mocks.NewStore()
	store.AddUser("user-jane", "jane")
	store.AddUser("user-john", "john")

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = testSecret

	services := service.NewServices(store.Repos(), zerolog.Nop())
	return store, api.NewRouter(services, cfg, zerolog.Nop())
}

func token(t *testing.T, userID string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": userID}).
		SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Token " + signed
}

func do(t *testing.T, router *gin.Engine, method, path, auth, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func TestListArticles_AnonymousEmptyStore(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodGet, "/api/articles", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decode(t, w)
	if body["articlesCount"].(float64) != 0 {
		t.Errorf("Expected articlesCount 0, got %v", body["articlesCount"])
	}
	if articles, ok := body["articles"].([]interface{}); !ok || len(articles) != 0 {
		t.Errorf("Expected empty articles array, got %v", body["articles"])
	}
}

func TestCreateArticle_RequiresAuth(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodPost, "/api/articles", "",
		`{"article":{"title":"T","description":"d","body":"b"}}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/api/articles", "Token not-a-jwt",
		`{"article":{"title":"T","description":"d","body":"b"}}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with garbage token, got %d", w.Code)
	}
}

func TestCreateAndFetchArticle(t *testing.T) {
	_, router := newServer(t)
	auth := token(t, "user-jane")

	w := do(t, router, http.MethodPost, "/api/articles", auth,
		`{"article":{"title":"Hello World","description":"greeting","body":"hi","tagList":["lorem","dolor"]}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}

	created := decode(t, w)["article"].(map[string]interface{})
	if created["slug"] != "hello-world" {
		t.Errorf("Expected slug hello-world, got %v", created["slug"])
	}
	if created["favorited"] != false || created["favoritesCount"].(float64) != 0 {
		t.Errorf("Expected fresh article flags, got %v", created)
	}
	author := created["author"].(map[string]interface{})
	if author["username"] != "jane" || author["following"] != false {
		t.Errorf("Unexpected author payload %v", author)
	}
	if _, leaked := author["id"]; leaked {
		t.Error("Author internal id must never be serialized")
	}

	// Anonymous fetch sees the same content with flags false
	w = do(t, router, http.MethodGet, "/api/articles/hello-world", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	fetched := decode(t, w)["article"].(map[string]interface{})
	tags := fetched["tagList"].([]interface{})
	if len(tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", tags)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodGet, "/api/articles/nope", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}
}

func TestUpdateArticle_NonAuthorRejected(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodPost, "/api/articles", token(t, "user-jane"),
		`{"article":{"title":"Owned","description":"d","body":"b"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("setup create failed: %d", w.Code)
	}

	w = do(t, router, http.MethodPut, "/api/articles/owned", token(t, "user-john"),
		`{"article":{"title":"Stolen"}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", w.Code, w.Body.String())
	}
	errs := decode(t, w)["errors"].(map[string]interface{})
	if _, ok := errs["article"]; !ok {
		t.Errorf("Expected the offending field named, got %v", errs)
	}
}

func TestCreateArticle_ValidationFailure(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodPost, "/api/articles", token(t, "user-jane"),
		`{"article":{"title":"","description":"","body":""}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d", w.Code)
	}
	errs := decode(t, w)["errors"].(map[string]interface{})
	for _, field := range []string{"title", "description", "body"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("Expected field %q reported, got %v", field, errs)
		}
	}
}

func TestFavoriteEndpoints(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodPost, "/api/articles", token(t, "user-jane"),
		`{"article":{"title":"Fav","description":"d","body":"b"}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("setup create failed: %d", w.Code)
	}

	w = do(t, router, http.MethodPost, "/api/articles/fav/favorite", token(t, "user-john"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	article := decode(t, w)["article"].(map[string]interface{})
	if article["favoritesCount"].(float64) != 1 || article["favorited"] != true {
		t.Errorf("Expected count 1 favorited true, got %v", article)
	}

	w = do(t, router, http.MethodDelete, "/api/articles/fav/favorite", token(t, "user-john"), "")
	article = decode(t, w)["article"].(map[string]interface{})
	if article["favoritesCount"].(float64) != 0 || article["favorited"] != false {
		t.Errorf("Expected count 0 favorited false, got %v", article)
	}
}

func TestDeleteArticle_ReturnsEmptyObject(t *testing.T) {
	_, router := newServer(t)

	do(t, router, http.MethodPost, "/api/articles", token(t, "user-jane"),
		`{"article":{"title":"Gone","description":"d","body":"b"}}`)

	w := do(t, router, http.MethodDelete, "/api/articles/gone", token(t, "user-jane"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if body := strings.TrimSpace(w.Body.String()); body != "{}" {
		t.Errorf("Expected empty object response, got %s", body)
	}

	w = do(t, router, http.MethodGet, "/api/articles/gone", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", w.Code)
	}
}

func TestTagsEndpoint(t *testing.T) {
	_, router := newServer(t)

	do(t, router, http.MethodPost, "/api/articles", token(t, "user-jane"),
		`{"article":{"title":"T","description":"d","body":"b","tagList":["go","sql"]}}`)

	w := do(t, router, http.MethodGet, "/api/tags", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	tags := decode(t, w)["tags"].([]interface{})
	if len(tags) != 2 {
		t.Errorf("Expected 2 tags, got %v", tags)
	}
}

func TestProfileEndpoints(t *testing.T) {
	_, router := newServer(t)

	w := do(t, router, http.MethodPost, "/api/profiles/jane/follow", token(t, "user-john"), "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	profile := decode(t, w)["profile"].(map[string]interface{})
	if profile["following"] != true {
		t.Errorf("Expected following true, got %v", profile)
	}

	// Anonymous view of the same profile shows following=false
	w = do(t, router, http.MethodGet, "/api/profiles/jane", "", "")
	profile = decode(t, w)["profile"].(map[string]interface{})
	if profile["following"] != false {
		t.Errorf("Expected anonymous following false, got %v", profile)
	}

	w = do(t, router, http.MethodGet, "/api/profiles/ghost", "", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown profile, got %d", w.Code)
	}
}
