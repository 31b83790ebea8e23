package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fkhayef/thinglibrary/internal/state"
	"github.com/fkhayef/thinglibrary/pkg/logging"
	"github.com/fkhayef/thinglibrary/pkg/response"
)

func newServer(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", WithHTTPClient(srv.Client()), WithLogger(logging.Discard()))
}

func sessionBody(token string) map[string]any {
	return map[string]any{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   time.Now().Add(time.Hour),
		"user":         map[string]string{"id": "u1", "email": "a@example.com"},
	}
}

func TestNotFoundMatchesSentinel(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "Item not found")
	})

	_, err := c.GetItem(context.Background(), 7)
	if !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got := state.Message(err); got != "Item not found" {
		t.Errorf("unexpected message %q", got)
	}
	if StatusOf(err) != http.StatusNotFound {
		t.Errorf("unexpected status %d", StatusOf(err))
	}
}

func TestConflictIsNotNotFound(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		response.Conflict(w, "Item is already shared with this group")
	})

	err := c.AddShares(context.Background(), []state.Share{{ThingID: 1, GroupID: 2}})
	if errors.Is(err, state.ErrNotFound) {
		t.Error("409 must not match not found")
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Code != "CONFLICT" {
		t.Errorf("unexpected error %#v", err)
	}
}

func TestSignInNotifiesAndAuthorizes(t *testing.T) {
	var gotAuth string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/signin":
			var body credentials
			json.NewDecoder(r.Body).Decode(&body)
			if body.Password != "secret" {
				response.Unauthorized(w, "invalid email or password")
				return
			}
			response.JSON(w, http.StatusOK, sessionBody("tok"))
		case "/api/v1/items":
			gotAuth = r.Header.Get("Authorization")
			response.List(w, []state.Item{{ID: 1, Name: "Ladder"}})
		case "/api/v1/auth/signout":
			response.NoContent(w)
		default:
			http.NotFound(w, r)
		}
	})

	var events []state.AuthEvent
	unsubscribe := c.OnAuthStateChange(func(e state.AuthEvent, _ *state.Session) {
		events = append(events, e)
	})

	if _, err := c.SignIn(context.Background(), "a@example.com", "wrong"); StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
	if len(events) != 0 {
		t.Errorf("failed sign in must not notify, got %v", events)
	}

	s, err := c.SignIn(context.Background(), "a@example.com", "secret")
	if err != nil {
		t.Fatal(err)
	}
	if s.User.ID != "u1" || s.AccessToken != "tok" {
		t.Errorf("unexpected session %+v", s)
	}

	items, err := c.ListItems(context.Background(), state.ItemQuery{})
	if err != nil || len(items) != 1 {
		t.Fatalf("unexpected items %v %v", items, err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("unexpected authorization %q", gotAuth)
	}

	unsubscribe()
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatal(err)
	}
	if c.token() != "" {
		t.Error("sign out must drop the token")
	}
	if len(events) != 1 || events[0] != state.EventSignedIn {
		t.Errorf("unexpected events %v", events)
	}
}

func TestSessionPersistence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "lot", "session.json")
	reject := false
	h := func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/signup":
			response.JSON(w, http.StatusCreated, sessionBody("tok"))
		case "/api/v1/auth/session":
			if reject || r.Header.Get("Authorization") != "Bearer tok" {
				response.Unauthorized(w, "invalid token")
				return
			}
			response.JSON(w, http.StatusOK, map[string]string{"id": "u1", "email": "a@example.com"})
		case "/api/v1/auth/signout":
			response.NoContent(w)
		}
	}

	first := newServer(t, h)
	first.tokenFile = file
	if _, err := first.SignUp(context.Background(), "a@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("session not saved: %v", err)
	}

	second := newServer(t, h)
	second.tokenFile = file
	if err := second.LoadSession(); err != nil {
		t.Fatal(err)
	}
	s, err := second.GetSession(context.Background())
	if err != nil || s == nil || s.User.Email != "a@example.com" {
		t.Fatalf("unexpected session %+v %v", s, err)
	}

	reject = true
	var signedOut bool
	second.OnAuthStateChange(func(e state.AuthEvent, s *state.Session) {
		signedOut = e == state.EventSignedOut && s == nil
	})
	s, err = second.GetSession(context.Background())
	if err != nil || s != nil {
		t.Errorf("rejected token must read as signed out, got %+v %v", s, err)
	}
	if !signedOut {
		t.Error("expected a signed out notification")
	}
	if _, err := os.Stat(file); !os.IsNotExist(err) {
		t.Errorf("token file must be removed, got %v", err)
	}
}

func TestMissingTokenFile(t *testing.T) {
	c := New("http://unused", WithTokenFile(filepath.Join(t.TempDir(), "none.json")))
	if err := c.LoadSession(); err != nil {
		t.Fatal(err)
	}
	s, err := c.GetSession(context.Background())
	if s != nil || err != nil {
		t.Errorf("expected no session, got %+v %v", s, err)
	}
}

func TestQueryEncoding(t *testing.T) {
	var raw []string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		raw = append(raw, r.URL.Path+"?"+r.URL.RawQuery)
		response.List(w, []state.Share{})
	})
	ctx := context.Background()

	c.ListItems(ctx, state.ItemQuery{Type: state.TypeRequest, UserIDs: []string{"a", "b"}})
	c.ListItems(ctx, state.ItemQuery{IDs: []int64{}})
	c.ListShares(ctx, state.ShareQuery{ThingIDs: []int64{1, 2}})
	c.RemoveShare(ctx, state.Share{ThingID: 3, GroupID: 4})
	c.ListMemberships(ctx, state.MembershipQuery{GroupIDs: []int64{9}})

	want := []string{
		"/api/v1/items?type=request&user_id=a%2Cb",
		"/api/v1/items?ids=",
		"/api/v1/shares?thing_id=1%2C2",
		"/api/v1/shares?group_id=4&thing_id=3",
		"/api/v1/memberships?group_id=9",
	}
	if strings.Join(raw, "\n") != strings.Join(want, "\n") {
		t.Errorf("unexpected requests:\n%s\nwant:\n%s", strings.Join(raw, "\n"), strings.Join(want, "\n"))
	}
}

func TestReplaceSharesSendsEmptySet(t *testing.T) {
	var body string
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/v1/shares/things/5" {
			http.NotFound(w, r)
			return
		}
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		response.List(w, []state.Share{})
	})

	if err := c.ReplaceShares(context.Background(), 5, nil); err != nil {
		t.Fatal(err)
	}
	if body != `{"group_ids":[]}` {
		t.Errorf("unexpected body %s", body)
	}
}

func TestJoinByToken(t *testing.T) {
	c := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req inviteToken
		json.NewDecoder(r.Body).Decode(&req)
		switch r.URL.Path {
		case "/api/v1/rpc/get_group_by_invite_token":
			response.JSON(w, http.StatusOK, map[string]any{"id": 4, "name": "Street", "already_member": req.InviteToken == "mine"})
		case "/api/v1/rpc/join_group_by_token":
			response.JSON(w, http.StatusOK, map[string]int64{"group_id": 4})
		}
	})
	ctx := context.Background()

	p, err := c.GetGroupByInviteToken(ctx, "mine")
	if err != nil || !p.AlreadyMember || p.Name != "Street" {
		t.Errorf("unexpected preview %+v %v", p, err)
	}
	id, err := c.JoinGroupByToken(ctx, "abc")
	if err != nil || id != 4 {
		t.Errorf("unexpected join %d %v", id, err)
	}
}
