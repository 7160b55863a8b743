package solve

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bodul/strands/internal/model"
)

var errBoom = errors.New("boom")

func fullRequest() model.Request {
	rows := make([]string, 8)
	for i := range rows {
		rows[i] = strings.Repeat("A", 6)
	}
	return model.Request{Grid: rows, WordCount: 7, Forbidden: []string{}}
}

func newSolver(t *testing.T, status int, body string) (*Client, *[]model.Request) {
	t.Helper()
	return newSolverWithType(t, status, "application/json", body)
}

func newSolverWithType(t *testing.T, status int, contentType, body string) (*Client, *[]model.Request) {
	t.Helper()
	var seen []model.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/solve", r.URL.Path)
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req model.Request
		require.NoError(t, json.Unmarshal(raw, &req))
		seen = append(seen, req)
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, 2*time.Second)
	t.Cleanup(func() { c.Close() })
	return c, &seen
}

func TestClientSuccess(t *testing.T) {
	c, seen := newSolver(t, http.StatusOK,
		`{"solutions":[{"words":["CAT","SPAN"],"paths":[[[0,0],[0,1],[0,2]],[[1,0],[1,1],[1,2],[1,3]]],"spangram":"SPAN"}]}`)

	req := fullRequest()
	req.Forbidden = []string{"DOG"}
	req.FindAllSolutions = true
	sols, err := c.Solve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, sols, 1)
	require.Equal(t, []string{"CAT", "SPAN"}, sols[0].Words)
	require.Equal(t, model.Path{{Row: 1, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3}}, sols[0].Paths[1])
	require.Equal(t, "SPAN", sols[0].Spangram)

	require.Len(t, *seen, 1)
	require.Equal(t, req, (*seen)[0])
}

func TestClientNoSolutions(t *testing.T) {
	c, _ := newSolver(t, http.StatusOK, `{"solutions":[]}`)
	sols, err := c.Solve(context.Background(), fullRequest())
	require.NoError(t, err)
	require.NotNil(t, sols)
	require.Empty(t, sols)
}

func TestClientServiceError(t *testing.T) {
	c, _ := newSolver(t, http.StatusInternalServerError, `{"error":"timeout"}`)
	_, err := c.Solve(context.Background(), fullRequest())

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusInternalServerError, se.Status)
	require.Equal(t, "timeout", Message(err))
}

func TestClientServiceErrorWithoutBody(t *testing.T) {
	c, _ := newSolver(t, http.StatusBadGateway, ``)
	_, err := c.Solve(context.Background(), fullRequest())
	require.Equal(t, GenericMessage, Message(err))
}

func TestClientRejectsMalformedSolutions(t *testing.T) {
	for name, body := range map[string]string{
		"length mismatch":   `{"solutions":[{"words":["CAT","DOG"],"paths":[[[0,0]]]}]}`,
		"empty path":        `{"solutions":[{"words":["CAT"],"paths":[[]]}]}`,
		"outside board":     `{"solutions":[{"words":["CAT"],"paths":[[[8,0]]]}]}`,
		"unknown spangram":  `{"solutions":[{"words":["CAT"],"paths":[[[0,0]]],"spangram":"DOG"}]}`,
		"coordinate triple": `{"solutions":[{"words":["CAT"],"paths":[[[0,0,1]]]}]}`,
		"no solutions key":  `{"result":[]}`,
		"null solutions":    `{"solutions":null}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newSolver(t, http.StatusOK, body)
			_, err := c.Solve(context.Background(), fullRequest())
			var se *ServiceError
			require.ErrorAs(t, err, &se)
		})
	}
}

func TestClientRejectsNonJSONSuccess(t *testing.T) {
	for name, tc := range map[string]struct{ contentType, body string }{
		"plain text": {"text/plain", "not json at all"},
		"html page":  {"text/html; charset=utf-8", "<html>proxy page</html>"},
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newSolverWithType(t, http.StatusOK, tc.contentType, tc.body)
			sols, err := c.Solve(context.Background(), fullRequest())
			require.Nil(t, sols)
			var se *ServiceError
			require.ErrorAs(t, err, &se)
			require.Equal(t, http.StatusOK, se.Status)
		})
	}
}

func TestClientAcceptsJSONWithCharset(t *testing.T) {
	c, _ := newSolverWithType(t, http.StatusOK, "application/json; charset=utf-8", `{"solutions":[]}`)
	sols, err := c.Solve(context.Background(), fullRequest())
	require.NoError(t, err)
	require.Empty(t, sols)
}

func TestClientTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second)
	defer c.Close()
	_, err := c.Solve(context.Background(), fullRequest())
	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Equal(t, GenericMessage, Message(err))
}
