package solve

import (
	"context"
	"fmt"
	"mime"
	"strings"
	"time"

	"resty.dev/v3"

	"github.com/bodul/strands/internal/model"
)

// Service is the remote solver.
type Service interface {
	Solve(ctx context.Context, req model.Request) ([]model.Solution, error)
}

// ServiceFunc adapts a function to Service.
type ServiceFunc func(ctx context.Context, req model.Request) ([]model.Solution, error)

func (f ServiceFunc) Solve(ctx context.Context, req model.Request) ([]model.Solution, error) {
	return f(ctx, req)
}

const defaultTimeout = 30 * time.Second

type solveResponse struct {
	Solutions *[]model.Solution `json:"solutions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client calls the solving service over HTTP.
type Client struct {
	http *resty.Client
}

// NewClient returns a client posting to baseURL + "/solve".
// A zero timeout uses 30 seconds.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: c}
}

// Close releases idle connections.
func (c *Client) Close() error {
	return c.http.Close()
}

// Solve posts req and validates every returned solution against the
// dimensions of req.Grid.
func (c *Client) Solve(ctx context.Context, req model.Request) ([]model.Solution, error) {
	var (
		ok  solveResponse
		bad errorResponse
	)
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&ok).
		SetError(&bad).
		Post("/solve")
	if err != nil {
		switch {
		case res == nil || res.StatusCode() == 0:
			return nil, &TransportError{Err: err}
		case res.StatusCode() >= 300:
			// unreadable error body
			return nil, &ServiceError{Status: res.StatusCode(), Message: bad.Error}
		default:
			return nil, &ServiceError{Status: res.StatusCode(), Message: fmt.Sprintf("malformed solutions: %v", err)}
		}
	}
	if res.IsError() || res.StatusCode() >= 300 {
		return nil, &ServiceError{Status: res.StatusCode(), Message: bad.Error}
	}
	// resty leaves non-JSON bodies undecoded.
	if ct := res.Header().Get("Content-Type"); !isJSON(ct) {
		return nil, &ServiceError{Status: res.StatusCode(), Message: fmt.Sprintf("malformed solutions: content type %q", ct)}
	}
	if ok.Solutions == nil {
		return nil, &ServiceError{Status: res.StatusCode(), Message: "malformed solutions: missing solutions list"}
	}

	rows, cols := len(req.Grid), 0
	if rows > 0 {
		cols = len(req.Grid[0])
	}
	solutions := *ok.Solutions
	for i, s := range solutions {
		if err := s.Validate(rows, cols); err != nil {
			return nil, &ServiceError{Status: res.StatusCode(), Message: fmt.Sprintf("malformed solution %d: %v", i, err)}
		}
	}
	if solutions == nil {
		solutions = []model.Solution{}
	}
	return solutions, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}
