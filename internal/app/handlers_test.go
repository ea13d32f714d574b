package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func newTestServer(t *testing.T) (*Server, *testClient) {
	t.Helper()
	s := NewServer(testCatalog(t), testExportOptions(t))
	s.now = func() time.Time { return time.Date(2025, 9, 17, 22, 3, 9, 0, time.UTC) }
	return s, &testClient{t: t, handler: s.Handler()}
}

func (c *testClient) do(method, target, body string, header ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}

	w := httptest.NewRecorder()
	c.handler.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name == SessionCookie {
			c.cookie = ck
		}
	}
	return w
}

func (c *testClient) record(day, band, person string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{"day": day, "band": band, "person": person})
	return c.do(http.MethodPost, "/api/marks", string(body))
}

func TestHandleHealth(t *testing.T) {
	_, c := newTestServer(t)
	w := c.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || w.Body.String() != "OK" {
		t.Errorf("health = %d %q", w.Code, w.Body.String())
	}
}

func TestHandleConfig(t *testing.T) {
	_, c := newTestServer(t)
	w := c.do(http.MethodGet, "/api/config", "")

	var resp struct {
		People   []Person `json:"people"`
		Days     []string `json:"days"`
		Timezone string   `json:"timezone"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.People) != 4 || len(resp.Days) != 2 || resp.Timezone != "America/New_York" {
		t.Errorf("unexpected config: %+v", resp)
	}
}

func TestRecordAndLineup(t *testing.T) {
	_, c := newTestServer(t)

	w := c.record(thursday, "Slayer", "Lauren")
	if w.Code != http.StatusCreated {
		t.Fatalf("record status = %d: %s", w.Code, w.Body.String())
	}
	var m Mark
	if err := json.NewDecoder(w.Body).Decode(&m); err != nil || m.ID == "" || m.Color != "#e91e63" {
		t.Fatalf("unexpected mark %+v (%v)", m, err)
	}

	w = c.do(http.MethodGet, "/api/lineup", "")
	var lineup struct {
		Days []lineupDay `json:"days"`
	}
	if err := json.NewDecoder(w.Body).Decode(&lineup); err != nil {
		t.Fatalf("decode lineup: %v", err)
	}
	if len(lineup.Days) != 2 || lineup.Days[0].Day != thursday {
		t.Fatalf("unexpected lineup days: %+v", lineup.Days)
	}
	slayer := lineup.Days[0].Cards[0]
	if slayer.Band != "Slayer" || slayer.Time != "9:30 PM" || len(slayer.Marks) != 1 {
		t.Errorf("unexpected Slayer card: %+v", slayer)
	}
	if len(lineup.Days[1].Cards[0].Marks) != 0 {
		t.Error("other cards should have no marks")
	}
}

func TestRecordRejectsUnknownInput(t *testing.T) {
	_, c := newTestServer(t)

	tests := []struct {
		name string
		resp *httptest.ResponseRecorder
		msg  string
	}{
		{"unknown day", c.record("Sunday", "Slayer", "Lauren"), MsgUnknownDay},
		{"unknown band", c.record(thursday, "Sleep Token", "Lauren"), MsgUnknownBand},
		{"unknown person", c.record(thursday, "Slayer", "Mallory"), MsgUnknownPerson},
		{"bad json", c.do(http.MethodPost, "/api/marks", "{"), MsgInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.resp.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", tt.resp.Code)
			}
			if !strings.Contains(tt.resp.Body.String(), tt.msg) {
				t.Errorf("body = %q, want %q", tt.resp.Body.String(), tt.msg)
			}
		})
	}

	if w := c.do(http.MethodGet, "/api/marks", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/marks = %d, want 405", w.Code)
	}
}

func TestUndo(t *testing.T) {
	_, c := newTestServer(t)

	w := c.do(http.MethodPost, "/api/marks/undo", "")
	if !strings.Contains(w.Body.String(), `"empty"`) {
		t.Errorf("undo on empty session = %s", w.Body.String())
	}

	c.record(friday, "Sleep Token", "Doug")
	c.record(friday, "Sleep Token", "Adam")
	w = c.do(http.MethodPost, "/api/marks/undo", "")
	if !strings.Contains(w.Body.String(), `"ok"`) || !strings.Contains(w.Body.String(), "Adam") {
		t.Errorf("undo = %s", w.Body.String())
	}

	w = c.do(http.MethodGet, "/api/schedule", "")
	var schedule CompiledSchedule
	if err := json.NewDecoder(w.Body).Decode(&schedule); err != nil {
		t.Fatalf("decode schedule: %v", err)
	}
	entries, _ := schedule.Day(friday)
	if len(entries) != 1 || len(entries[0].Attendees) != 1 || entries[0].Attendees[0] != "Doug" {
		t.Errorf("schedule after undo = %+v", schedule)
	}
}

func TestScheduleETag(t *testing.T) {
	_, c := newTestServer(t)
	c.record(thursday, "Rob Zombie", "Kristie")

	first := c.do(http.MethodGet, "/api/schedule", "")
	etag := first.Header().Get("ETag")
	if etag == "" {
		t.Fatal("schedule response should carry an ETag")
	}

	again := c.do(http.MethodGet, "/api/schedule", "", "If-None-Match", etag)
	if again.Code != http.StatusNotModified {
		t.Errorf("unchanged schedule = %d, want 304", again.Code)
	}

	c.record(thursday, "Slayer", "Kristie")
	changed := c.do(http.MethodGet, "/api/schedule", "", "If-None-Match", etag)
	if changed.Code != http.StatusOK || changed.Header().Get("ETag") == etag {
		t.Errorf("changed schedule = %d with etag %s", changed.Code, changed.Header().Get("ETag"))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	s, alice := newTestServer(t)
	bob := &testClient{t: t, handler: s.Handler()}

	alice.record(thursday, "Slayer", "Lauren")

	w := bob.do(http.MethodGet, "/api/download?format=csv", "")
	if w.Code != http.StatusConflict {
		t.Errorf("a fresh client must not see other marks, status %d", w.Code)
	}

	bob.record(friday, "Sleep Token", "Doug")
	if alice.cookie == nil || bob.cookie == nil || alice.cookie.Value == bob.cookie.Value {
		t.Error("each client should get its own session cookie")
	}
	if len(s.sessions) != 2 {
		t.Errorf("expected 2 sessions, got %d", len(s.sessions))
	}
}

func TestReadsDoNotStartSessions(t *testing.T) {
	s, c := newTestServer(t)

	c.do(http.MethodGet, "/api/lineup", "")
	c.do(http.MethodGet, "/api/schedule", "")
	c.do(http.MethodGet, "/api/download?format=ics", "")
	w := c.do(http.MethodPost, "/api/marks/undo", "")

	if !strings.Contains(w.Body.String(), `"empty"`) {
		t.Errorf("undo without a session = %s", w.Body.String())
	}
	if c.cookie != nil {
		t.Errorf("no cookie expected before the first mark, got %v", c.cookie)
	}
	if len(s.sessions) != 0 {
		t.Errorf("expected no sessions, got %d", len(s.sessions))
	}

	// a rejected mark still starts the session
	c.record(thursday, "Slayer", "Mallory")
	if c.cookie == nil || len(s.sessions) != 1 {
		t.Errorf("POST /api/marks should start a session")
	}
}

func TestIdleSessionsExpire(t *testing.T) {
	s, alice := newTestServer(t)
	clock := time.Date(2025, 9, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	alice.record(thursday, "Slayer", "Lauren")

	clock = clock.Add(sessionIdleTTL + time.Minute)
	bob := &testClient{t: t, handler: s.Handler()}
	bob.record(thursday, "Slayer", "Doug")

	if len(s.sessions) != 1 {
		t.Fatalf("idle session should be dropped, %d left", len(s.sessions))
	}
	w := alice.do(http.MethodGet, "/api/download?format=csv", "")
	if w.Code != http.StatusConflict {
		t.Errorf("expired session must not keep its marks, status %d", w.Code)
	}
}

func TestSessionTableIsBounded(t *testing.T) {
	s, first := newTestServer(t)
	s.maxSessions = 2
	clock := time.Date(2025, 9, 18, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first.record(thursday, "Slayer", "Lauren")
	clock = clock.Add(time.Minute)
	second := &testClient{t: t, handler: s.Handler()}
	second.record(thursday, "Slayer", "Doug")
	clock = clock.Add(time.Minute)
	third := &testClient{t: t, handler: s.Handler()}
	third.record(thursday, "Slayer", "Adam")

	if len(s.sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(s.sessions))
	}
	if _, ok := s.sessions[first.cookie.Value]; ok {
		t.Error("least recently used session should be evicted")
	}
	if _, ok := s.sessions[second.cookie.Value]; !ok {
		t.Error("newer session should survive")
	}
}

func TestHandleDownload(t *testing.T) {
	_, c := newTestServer(t)

	w := c.do(http.MethodGet, "/api/download?format=ics", "")
	if w.Code != http.StatusConflict || !strings.Contains(w.Body.String(), MsgNoSelections) {
		t.Errorf("empty export = %d %q", w.Code, w.Body.String())
	}
	if w.Header().Get("Content-Disposition") != "" {
		t.Error("no file may be offered without selections")
	}

	c.record(thursday, "Slayer", "Lauren")
	c.record(thursday, "Lamb of God", "Doug")

	tests := []struct {
		format      string
		contentType string
		filename    string
		contains    string
	}{
		{"csv", "text/csv", "schedule-2025-09-17-22-03-09.csv", "Lamb of God,Main Stage 1,Doug"},
		{"ics", "text/calendar", "schedule-2025-09-17-22-03-09.ics", "DTSTART;TZID=America/New_York:20250918T213000"},
		{"json", "application/json", "schedule-2025-09-17-22-03-09.json", `"band": "Slayer"`},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := c.do(http.MethodGet, "/api/download?format="+tt.format, "")
			if w.Code != http.StatusOK {
				t.Fatalf("status = %d", w.Code)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("Content-Type = %s", ct)
			}
			if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, tt.filename) {
				t.Errorf("Content-Disposition = %s", cd)
			}
			if !strings.Contains(w.Body.String(), tt.contains) {
				t.Errorf("body missing %q:\n%s", tt.contains, w.Body.String())
			}
		})
	}

	if w := c.do(http.MethodGet, "/api/download?format=pdf", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format = %d, want 400", w.Code)
	}
}

func TestETagMatches(t *testing.T) {
	etag := `"abc"`
	tests := map[string]bool{
		"":               false,
		`"abc"`:          true,
		`W/"abc"`:        true,
		`"x", "abc"`:     true,
		"*":              true,
		`"abcd"`:         false,
		`"other", W/"y"`: false,
	}
	for header, want := range tests {
		if got := etagMatches(header, etag); got != want {
			t.Errorf("etagMatches(%q) = %v, want %v", header, got, want)
		}
	}
}
