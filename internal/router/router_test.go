package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"abserver/internal/database/dbtest"
	"abserver/pkg/config"
	"abserver/pkg/jwt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	engine *gin.Engine
}

func newTestServer(t *testing.T, webDir string) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := dbtest.New(t)
	cfg := &config.Config{
		Server: config.ServerConfig{WebDir: webDir},
		CORS: config.CORSConfig{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE"},
			AllowHeaders: []string{"Authorization", "Content-Type"},
		},
	}
	engine := SetupRouter(cfg, db, jwt.NewJWTManager("test-secret", time.Hour))
	return &testServer{t: t, db: db, engine: engine}
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		data, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) expect(rec *httptest.ResponseRecorder, status int) map[string]interface{} {
	s.t.Helper()
	if rec.Code != status {
		s.t.Fatalf("status = %d, want %d, body %s", rec.Code, status, rec.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		s.t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return body
}

func (s *testServer) login(username string) string {
	s.t.Helper()
	body := s.expect(s.do(http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": username + "-pw",
		"id":       "123456789",
	}), http.StatusOK)

	if body["type"] != "access_token" {
		s.t.Fatalf("unexpected login response %v", body)
	}
	user, _ := body["user"].(map[string]interface{})
	if user["name"] != username {
		s.t.Fatalf("unexpected user payload %v", user)
	}
	return body["access_token"].(string)
}

func TestLoginAndCurrentUser(t *testing.T) {
	s := newTestServer(t, "")
	dbtest.CreateUser(t, s.db, "alice", false)

	s.expect(s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice", "password": "bad"}), http.StatusUnauthorized)
	s.expect(s.do(http.MethodPost, "/api/login", "", map[string]string{"username": "alice"}), http.StatusBadRequest)

	token := s.login("alice")
	body := s.expect(s.do(http.MethodGet, "/api/currentUser", token, nil), http.StatusOK)
	if body["name"] != "alice" || body["is_admin"] != false {
		t.Fatalf("unexpected current user %v", body)
	}

	s.expect(s.do(http.MethodGet, "/api/currentUser", "", nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodGet, "/api/currentUser", "garbage", nil), http.StatusUnauthorized)
	s.expect(s.do(http.MethodPost, "/api/logout", token, nil), http.StatusOK)
}

func TestAddressBookFlow(t *testing.T) {
	s := newTestServer(t, "")
	dbtest.CreateUser(t, s.db, "alice", false)
	token := s.login("alice")

	personal := s.expect(s.do(http.MethodGet, "/api/ab/personal", token, nil), http.StatusOK)
	profile := personal["data"].(map[string]interface{})
	guid := profile["guid"].(string)
	if profile["owner"] != "alice" || profile["rule"] != float64(3) || profile["name"] != "Personal" {
		t.Fatalf("unexpected profile %v", profile)
	}

	s.expect(s.do(http.MethodPost, "/api/ab/tag/add/"+guid, token, map[string]interface{}{"name": "work", "color": 4278255360}), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/api/ab/tag/add/"+guid, token, map[string]interface{}{"name": "home"}), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/api/ab/peer/add/"+guid, token, map[string]interface{}{
		"id": "rd1", "alias": "box", "tags": []string{"work", "nope"},
	}), http.StatusOK)

	tags := s.expect(s.do(http.MethodGet, "/api/ab/tags/"+guid, token, nil), http.StatusOK)
	if tags["total"] != float64(2) {
		t.Fatalf("unexpected tags %v", tags)
	}
	home := tags["data"].([]interface{})[0].(map[string]interface{})
	if home["name"] != "home" || home["color"] != float64(4278190080) {
		t.Fatalf("default color not applied: %v", home)
	}

	peers := s.expect(s.do(http.MethodGet, "/api/ab/peers?current=1&pageSize=10&ab="+guid, token, nil), http.StatusOK)
	if peers["total"] != float64(1) {
		t.Fatalf("unexpected peers %v", peers)
	}
	peer := peers["data"].([]interface{})[0].(map[string]interface{})
	if peer["id"] != "rd1" || len(peer["tags"].([]interface{})) != 1 {
		t.Fatalf("unexpected peer %v", peer)
	}

	s.expect(s.do(http.MethodPut, "/api/ab/peer/update/"+guid, token, map[string]interface{}{"id": "rd1", "note": "hi"}), http.StatusOK)
	s.expect(s.do(http.MethodPut, "/api/ab/peer/update/"+guid, token, map[string]interface{}{"id": "ghost", "note": "hi"}), http.StatusNotFound)
	s.expect(s.do(http.MethodPut, "/api/ab/tag/rename/"+guid, token, map[string]string{"old": "work", "new": "home"}), http.StatusConflict)
	s.expect(s.do(http.MethodPut, "/api/ab/tag/update/"+guid, token, map[string]interface{}{"name": "home", "color": 1}), http.StatusOK)

	legacy := s.expect(s.do(http.MethodGet, "/api/ab", token, nil), http.StatusOK)
	doc, ok := legacy["data"].(string)
	if !ok {
		t.Fatalf("legacy data must be a string, got %T", legacy["data"])
	}
	var parsed struct {
		TagColors string `json:"tag_colors"`
	}
	if err := json.Unmarshal([]byte(doc), &parsed); err != nil {
		t.Fatalf("legacy document: %v", err)
	}
	if parsed.TagColors != `{"home":1,"work":4278255360}` {
		t.Fatalf("tag_colors = %s", parsed.TagColors)
	}

	s.expect(s.do(http.MethodPost, "/api/ab", token, map[string]string{"data": "{broken"}), http.StatusBadRequest)
	s.expect(s.do(http.MethodPost, "/api/ab", token, map[string]string{"data": doc}), http.StatusOK)

	s.expect(s.do(http.MethodDelete, "/api/ab/peer/"+guid, token, map[string]interface{}{"ids": []string{"missing"}, "id": "rd1"}), http.StatusOK)
	s.expect(s.do(http.MethodDelete, "/api/ab/tag/"+guid, token, map[string]interface{}{"name": "home"}), http.StatusOK)
	peers = s.expect(s.do(http.MethodGet, "/api/ab/peers", token, nil), http.StatusOK)
	if peers["total"] != float64(0) {
		t.Fatalf("peer not deleted: %v", peers)
	}

	settings := s.expect(s.do(http.MethodGet, "/api/ab/settings", token, nil), http.StatusOK)
	if settings["max_peer_one_ab"] != float64(0) {
		t.Fatalf("unexpected settings %v", settings)
	}
}

func TestForbiddenAddressBook(t *testing.T) {
	s := newTestServer(t, "")
	dbtest.CreateUser(t, s.db, "alice", false)
	dbtest.CreateUser(t, s.db, "mallory", false)
	alice := s.login("alice")
	mallory := s.login("mallory")

	guid := s.expect(s.do(http.MethodGet, "/api/ab/personal", alice, nil), http.StatusOK)["data"].(map[string]interface{})["guid"].(string)

	existing := s.do(http.MethodGet, "/api/ab/tags/"+guid, mallory, nil)
	missing := s.do(http.MethodGet, "/api/ab/tags/00000000-0000-4000-8000-000000000000", mallory, nil)
	if existing.Code != http.StatusForbidden || missing.Code != http.StatusForbidden {
		t.Fatalf("status = %d / %d, want 403", existing.Code, missing.Code)
	}
	if existing.Body.String() != missing.Body.String() {
		t.Fatalf("bodies differ: %s vs %s", existing.Body.String(), missing.Body.String())
	}
	s.expect(s.do(http.MethodPost, "/api/ab/peer/add/"+guid, mallory, map[string]string{"id": "x"}), http.StatusForbidden)
}

func TestAdminSharing(t *testing.T) {
	s := newTestServer(t, "")
	dbtest.CreateUser(t, s.db, "root", true)
	bob := dbtest.CreateUser(t, s.db, "bob", false)
	carol := dbtest.CreateUser(t, s.db, "carol", false)
	root := s.login("root")
	bobToken := s.login("bob")
	carolToken := s.login("carol")

	s.expect(s.do(http.MethodGet, "/api/users", bobToken, nil), http.StatusForbidden)
	users := s.expect(s.do(http.MethodGet, "/api/users", root, nil), http.StatusOK)
	if users["total"] != float64(3) {
		t.Fatalf("unexpected users %v", users)
	}

	book := s.expect(s.do(http.MethodPost, "/api/address-books", root, map[string]interface{}{"name": "Team", "owner_id": bob.ID}), http.StatusOK)
	guid := book["data"].(map[string]interface{})["guid"].(string)

	s.expect(s.do(http.MethodPost, "/api/groups", root, map[string]string{"name": "ops"}), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/api/groups", root, map[string]string{"name": "ops"}), http.StatusConflict)
	groups := s.expect(s.do(http.MethodGet, "/api/groups", root, nil), http.StatusOK)
	groupID := groups["data"].([]interface{})[0].(map[string]interface{})["id"].(float64)

	s.expect(s.do(http.MethodPost, "/api/groups/"+itoa(groupID)+"/members", root, map[string]interface{}{"user_id": carol.ID}), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/api/address-books/"+guid+"/shares", root, map[string]interface{}{"group_id": groupID, "rule": 2}), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/api/address-books/"+guid+"/shares", root, map[string]interface{}{"rule": 2}), http.StatusBadRequest)

	shared := s.expect(s.do(http.MethodGet, "/api/ab/shared/profiles", carolToken, nil), http.StatusOK)
	if shared["total"] != float64(1) {
		t.Fatalf("unexpected shared profiles %v", shared)
	}
	profile := shared["data"].([]interface{})[0].(map[string]interface{})
	if profile["guid"] != guid || profile["owner"] != "bob" || profile["rule"] != float64(2) {
		t.Fatalf("unexpected profile %v", profile)
	}

	s.expect(s.do(http.MethodPost, "/api/ab/peer/add/"+guid, carolToken, map[string]string{"id": "shared-1"}), http.StatusOK)
	s.expect(s.do(http.MethodDelete, "/api/users/"+itoa(float64(bob.ID)), root, nil), http.StatusOK)
	s.expect(s.do(http.MethodGet, "/api/ab/tags/"+guid, carolToken, nil), http.StatusForbidden)
}

func TestTelemetryEndpoints(t *testing.T) {
	s := newTestServer(t, "")

	hb := s.expect(s.do(http.MethodPost, "/api/heartbeat", "", map[string]interface{}{"id": "123", "ver": 1}), http.StatusOK)
	if hb["modified_at"] != "" {
		t.Fatalf("unexpected heartbeat response %v", hb)
	}
	s.expect(s.do(http.MethodPost, "/api/system/sysinfo", "", map[string]string{"id": "123", "os": "linux"}), http.StatusOK)
	s.expect(s.do(http.MethodPost, "/api/audit", "", map[string]string{"action": "new", "Id": "123"}), http.StatusOK)
	s.expect(s.do(http.MethodGet, "/api/health", "", nil), http.StatusOK)
	s.expect(s.do(http.MethodGet, "/api/unknown", "", nil), http.StatusNotFound)
}

func TestStaticFallback(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>app</html>"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0644); err != nil {
		t.Fatal(err)
	}
	s := newTestServer(t, dir)

	cases := []struct {
		path string
		want string
	}{
		{"/app.js", "console.log(1)"},
		{"/users/42", "<html>app</html>"},
	}
	for _, tc := range cases {
		rec := s.do(http.MethodGet, tc.path, "", nil)
		if rec.Code != http.StatusOK || rec.Body.String() != tc.want {
			t.Fatalf("%s: status %d body %q", tc.path, rec.Code, rec.Body.String())
		}
	}
}

func itoa(v float64) string {
	return strconv.FormatUint(uint64(v), 10)
}

func TestStaticFileStaysInsideWebDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, ok := staticFile(dir, "/../../../etc/passwd"); ok {
		t.Fatalf("path escaped the web directory")
	}
	if got, ok := staticFile(dir, "/sub/../a.txt"); !ok || got != filepath.Join(dir, "a.txt") {
		t.Fatalf("got %q, %v", got, ok)
	}
	if _, ok := staticFile(dir, "/"); ok {
		t.Fatalf("directories must not be served")
	}
}
