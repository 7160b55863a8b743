package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/bodul/strands/internal/config"
	"github.com/bodul/strands/internal/model"
	"github.com/bodul/strands/internal/solve"
)

type fakeScanner struct {
	rows []string
	err  error
}

func (f fakeScanner) Scan(ctx context.Context, imageData []byte, mimeType string, rows, cols int) ([]string, error) {
	return f.rows, f.err
}

func newTestServer(svc solve.Service) *Server {
	return NewServer(NewStore(2, 3, svc), nil, nil, config.Default().Server)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, srv http.Handler) SessionState {
	t.Helper()
	w := do(t, srv, "POST", "/api/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var st SessionState
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if st.ID == "" {
		t.Fatal("session ID is empty")
	}
	return st
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(catService)

	w := do(t, srv, "GET", "/", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("expected text/html, got %s", ct)
	}
	if !strings.Contains(w.Body.String(), "Strands Solver") {
		t.Fatal("index page does not contain expected title")
	}
}

func TestFullSolveFlow(t *testing.T) {
	srv := newTestServer(catService)
	st := createSession(t, srv)
	base := "/api/sessions/" + st.ID

	// Solving an empty board fails without a call.
	w := do(t, srv, "POST", base+"/solve", `{"wordcount":1}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("incomplete solve: expected 422, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "grid incomplete") {
		t.Fatalf("expected grid incomplete message, got %s", w.Body.String())
	}

	// Fill the board one cell at a time.
	for i, letter := range []string{"c", "a", "t", "d", "o", "g"} {
		body := `{"row":` + string(rune('0'+i/3)) + `,"col":` + string(rune('0'+i%3)) + `,"value":"` + letter + `"}`
		w = do(t, srv, "PUT", base+"/cells", body)
		if w.Code != http.StatusOK {
			t.Fatalf("set cell %d: expected 200, got %d: %s", i, w.Code, w.Body.String())
		}
		var cell cellResponse
		json.NewDecoder(w.Body).Decode(&cell)
		if cell.Value != strings.ToUpper(letter) {
			t.Fatalf("expected normalized %q, got %q", strings.ToUpper(letter), cell.Value)
		}
	}

	// Out-of-bounds edits are rejected.
	w = do(t, srv, "PUT", base+"/cells", `{"row":9,"col":0,"value":"A"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("out of bounds: expected 400, got %d", w.Code)
	}

	w = do(t, srv, "POST", base+"/solve", `{"wordcount":1,"forbidden":"dog"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("solve: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		State     string           `json:"state"`
		Solutions []model.Solution `json:"solutions"`
		Views     []struct {
			Words      []string           `json:"words"`
			Highlights map[string]any     `json:"highlights"`
			Segments   [][]map[string]any `json:"segments"`
		} `json:"views"`
	}
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.State != "succeeded" {
		t.Fatalf("expected succeeded, got %s", resp.State)
	}
	if len(resp.Views) != 1 || len(resp.Views[0].Highlights) != 3 || len(resp.Views[0].Segments[0]) != 2 {
		t.Fatalf("unexpected views: %+v", resp.Views)
	}

	w = do(t, srv, "GET", base+"/solutions", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "CAT") {
		t.Fatalf("solutions: got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, srv, "GET", base+"/solutions/0/image.png", "")
	if w.Code != http.StatusOK {
		t.Fatalf("image: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %s", ct)
	}
	if _, err := png.Decode(w.Body); err != nil {
		t.Fatalf("decode png: %v", err)
	}

	w = do(t, srv, "GET", base+"/solutions/1/image.png", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing image: expected 404, got %d", w.Code)
	}

	// Reset empties the board and the result.
	w = do(t, srv, "POST", base+"/reset", "")
	if w.Code != http.StatusOK {
		t.Fatalf("reset: expected 200, got %d", w.Code)
	}
	var state SessionState
	json.NewDecoder(w.Body).Decode(&state)
	if state.Cells[0][0] != "" || state.Solve.State != solve.Idle {
		t.Fatalf("expected empty idle session after reset, got %+v", state)
	}
}

func TestBackspaceRoute(t *testing.T) {
	srv := newTestServer(catService)
	st := createSession(t, srv)
	base := "/api/sessions/" + st.ID

	do(t, srv, "PUT", base+"/cells", `{"row":0,"col":0,"value":"x"}`)

	w := do(t, srv, "POST", base+"/backspace", `{"row":0,"col":1}`)
	var cell cellResponse
	json.NewDecoder(w.Body).Decode(&cell)
	if cell.Focus != (model.Coord{Row: 0, Col: 0}) || cell.Value != "" {
		t.Fatalf("expected move back to 0,0, got %+v", cell)
	}

	w = do(t, srv, "POST", base+"/backspace", `{"row":0,"col":0}`)
	json.NewDecoder(w.Body).Decode(&cell)
	if cell.Focus != (model.Coord{Row: 0, Col: 0}) || cell.Value != "" {
		t.Fatalf("expected 0,0 cleared in place, got %+v", cell)
	}

	w = do(t, srv, "GET", base, "")
	var state SessionState
	json.NewDecoder(w.Body).Decode(&state)
	if state.Cells[0][0] != "" {
		t.Fatalf("expected cell cleared, got %q", state.Cells[0][0])
	}
}

func TestSolveServiceFailure(t *testing.T) {
	svc := solve.ServiceFunc(func(ctx context.Context, req model.Request) ([]model.Solution, error) {
		return nil, &solve.ServiceError{Status: 400, Message: "unknown word list"}
	})
	srv := newTestServer(svc)
	st := createSession(t, srv)
	srv.store.GetSession(st.ID).Load(filledRows(2, 3, "A"))

	w := do(t, srv, "POST", "/api/sessions/"+st.ID+"/solve", "")
	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "unknown word list") {
		t.Fatalf("expected service message, got %s", w.Body.String())
	}

	var resp struct {
		Views []any `json:"views"`
	}
	json.NewDecoder(strings.NewReader(w.Body.String())).Decode(&resp)
	if len(resp.Views) != 0 {
		t.Fatalf("expected no views on failure, got %d", len(resp.Views))
	}
}

func TestSolveInProgressConflict(t *testing.T) {
	release := make(chan struct{})
	svc := solve.ServiceFunc(func(ctx context.Context, req model.Request) ([]model.Solution, error) {
		select {
		case <-release:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})
	srv := newTestServer(svc)
	st := createSession(t, srv)
	sess := srv.store.GetSession(st.ID)
	sess.Load(filledRows(2, 3, "A"))

	done := make(chan struct{})
	go func() {
		sess.Submit(context.Background(), solve.Params{WordCount: -1})
		close(done)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for !sess.Solving() {
		if time.Now().After(deadline) {
			t.Fatal("submission never started")
		}
		time.Sleep(time.Millisecond)
	}

	w := do(t, srv, "POST", "/api/sessions/"+st.ID+"/solve", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}

	close(release)
	<-done
	if got := sess.State().Solve.State; got != solve.Succeeded {
		t.Fatalf("expected succeeded, got %s", got)
	}
}

func TestUnknownSession(t *testing.T) {
	srv := newTestServer(catService)
	w := do(t, srv, "GET", "/api/sessions/nope", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	srv := newTestServer(catService)
	st := createSession(t, srv)

	w := do(t, srv, "GET", "/api/sessions", "")
	if !strings.Contains(w.Body.String(), st.ID) {
		t.Fatalf("expected list to contain %s, got %s", st.ID, w.Body.String())
	}

	w = do(t, srv, "DELETE", "/api/sessions/"+st.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = do(t, srv, "GET", "/api/sessions/"+st.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", w.Code)
	}
}

func scanRequest(t *testing.T, path, mimeType string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="board.png"`)
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	part.Write([]byte("fake image"))
	mw.Close()

	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestScanRoute(t *testing.T) {
	store := NewStore(2, 3, catService)
	srv := NewServer(store, fakeScanner{rows: []string{"abc", "def"}}, nil, config.Default().Server)
	st := createSession(t, srv)
	path := "/api/sessions/" + st.ID + "/scan"

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, scanRequest(t, path, "image/gif"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("gif: expected 400, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	srv.ServeHTTP(w, scanRequest(t, path, "image/png"))
	if w.Code != http.StatusOK {
		t.Fatalf("scan: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var state SessionState
	json.NewDecoder(w.Body).Decode(&state)
	if state.Cells[1][2] != "F" {
		t.Fatalf("expected scanned F at 1,2, got %q", state.Cells[1][2])
	}
}

func TestScanFailures(t *testing.T) {
	srv := newTestServer(catService)
	st := createSession(t, srv)
	path := "/api/sessions/" + st.ID + "/scan"

	w := httptest.NewRecorder()
	srv.ServeHTTP(w, scanRequest(t, path, "image/png"))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("no scanner: expected 503, got %d", w.Code)
	}

	srv = NewServer(NewStore(2, 3, catService), fakeScanner{err: errors.New("blurry")}, nil, config.Default().Server)
	st = createSession(t, srv)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, scanRequest(t, "/api/sessions/"+st.ID+"/scan", "image/png"))
	if w.Code != http.StatusBadGateway {
		t.Fatalf("scan error: expected 502, got %d", w.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(3, time.Minute)

	for i := range 3 {
		if !rl.allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.allow("1.2.3.4") {
		t.Fatal("4th request should be blocked")
	}
	if !rl.allow("5.6.7.8") {
		t.Fatal("different IP should be allowed")
	}

	rl.prune(0)
	if !rl.allow("1.2.3.4") {
		t.Fatal("pruned visitor should start with a full bucket")
	}
}

func TestEditRateLimit(t *testing.T) {
	limits := config.Default().Server
	limits.EditsPerSecond = 2
	srv := NewServer(NewStore(2, 3, catService), nil, nil, limits)
	st := createSession(t, srv)

	var last int
	for range 3 {
		last = do(t, srv, "PUT", "/api/sessions/"+st.ID+"/cells", `{"row":0,"col":0,"value":"A"}`).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", last)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(catService)

	w := do(t, srv, "GET", "/", "")

	headers := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for k, v := range headers {
		if got := w.Header().Get(k); got != v {
			t.Fatalf("header %s: expected %q, got %q", k, v, got)
		}
	}
	if csp := w.Header().Get("Content-Security-Policy"); csp == "" {
		t.Fatal("missing Content-Security-Policy header")
	}
}
