// Package config loads the HCL configuration file. Every block is optional;
// missing values keep their defaults and a handful of environment variables
// override the result.
//
//	server { addr = ":8080" }
//	solver {
//	  url     = env.SOLVER_URL
//	  timeout = "20s"
//	}
//	board  { rows = 8  cols = 6 }
//	vision { project = env.GCP_PROJECT_ID }
//	log    { level = "debug"  format = "json" }
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// Config is the resolved application configuration.
type Config struct {
	Server Server
	Solver Solver
	Board  Board
	Vision Vision
	Log    Log
}

type Server struct {
	Addr string
	// UploadsPerMinute limits board photo uploads per client IP.
	UploadsPerMinute int
	// EditsPerSecond limits cell edits per client IP.
	EditsPerSecond int
	// SessionTTL is how long an untouched session is kept.
	SessionTTL time.Duration
}

type Solver struct {
	URL     string
	Timeout time.Duration
}

type Board struct {
	Rows int
	Cols int
}

type Vision struct {
	Project string
	Region  string
	Model   string
	// Timeout bounds one photo scan.
	Timeout time.Duration
}

type Log struct {
	Level  string
	Format string
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{Addr: ":8080", UploadsPerMinute: 5, EditsPerSecond: 60, SessionTTL: 2 * time.Hour},
		Solver: Solver{URL: "http://localhost:5000", Timeout: 30 * time.Second},
		Board:  Board{Rows: 8, Cols: 6},
		Vision: Vision{Region: "europe-west1", Model: "gemini-2.5-flash", Timeout: time.Minute},
		Log:    Log{Level: "info", Format: "console"},
	}
}

type fileRoot struct {
	Server *serverBlock `hcl:"server,block"`
	Solver *solverBlock `hcl:"solver,block"`
	Board  *boardBlock  `hcl:"board,block"`
	Vision *visionBlock `hcl:"vision,block"`
	Log    *logBlock    `hcl:"log,block"`
}

type serverBlock struct {
	Addr             *string `hcl:"addr,optional"`
	UploadsPerMinute *int    `hcl:"uploads_per_minute,optional"`
	EditsPerSecond   *int    `hcl:"edits_per_second,optional"`
	SessionTTL       *string `hcl:"session_ttl,optional"`
}

type solverBlock struct {
	URL     *string `hcl:"url,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

type boardBlock struct {
	Rows *int `hcl:"rows,optional"`
	Cols *int `hcl:"cols,optional"`
}

type visionBlock struct {
	Project *string `hcl:"project,optional"`
	Region  *string `hcl:"region,optional"`
	Model   *string `hcl:"model,optional"`
	Timeout *string `hcl:"timeout,optional"`
}

type logBlock struct {
	Level  *string `hcl:"level,optional"`
	Format *string `hcl:"format,optional"`
}

// Load reads path (skipped when empty), applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := cfg.decode(path, src, os.Environ()); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes src on top of the defaults. environ feeds the env object.
func Parse(filename string, src []byte, environ []string) (*Config, error) {
	cfg := Default()
	if err := cfg.decode(filename, src, environ); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(filename string, src []byte, environ []string) error {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse config %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, evalContext(environ), &root)
	if diags.HasErrors() {
		return fmt.Errorf("failed to decode config %s: %w", filename, diags)
	}

	if b := root.Server; b != nil {
		set(&c.Server.Addr, b.Addr)
		set(&c.Server.UploadsPerMinute, b.UploadsPerMinute)
		set(&c.Server.EditsPerSecond, b.EditsPerSecond)
		if b.SessionTTL != nil {
			d, err := time.ParseDuration(*b.SessionTTL)
			if err != nil {
				return fmt.Errorf("config %s: server.session_ttl: %w", filename, err)
			}
			c.Server.SessionTTL = d
		}
	}
	if b := root.Solver; b != nil {
		set(&c.Solver.URL, b.URL)
		if b.Timeout != nil {
			d, err := time.ParseDuration(*b.Timeout)
			if err != nil {
				return fmt.Errorf("config %s: solver.timeout: %w", filename, err)
			}
			c.Solver.Timeout = d
		}
	}
	if b := root.Board; b != nil {
		set(&c.Board.Rows, b.Rows)
		set(&c.Board.Cols, b.Cols)
	}
	if b := root.Vision; b != nil {
		set(&c.Vision.Project, b.Project)
		set(&c.Vision.Region, b.Region)
		set(&c.Vision.Model, b.Model)
		if b.Timeout != nil {
			d, err := time.ParseDuration(*b.Timeout)
			if err != nil {
				return fmt.Errorf("config %s: vision.timeout: %w", filename, err)
			}
			c.Vision.Timeout = d
		}
	}
	if b := root.Log; b != nil {
		set(&c.Log.Level, b.Level)
		set(&c.Log.Format, b.Format)
	}
	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func evalContext(environ []string) *hcl.EvalContext {
	vars := make(map[string]cty.Value, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vars)},
	}
}

// ApplyEnv overrides values from PORT, SOLVER_URL, GCP_PROJECT_ID and
// GCP_REGION when they are set.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if port := getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if u := getenv("SOLVER_URL"); u != "" {
		c.Solver.URL = u
	}
	if p := getenv("GCP_PROJECT_ID"); p != "" {
		c.Vision.Project = p
	}
	if r := getenv("GCP_REGION"); r != "" {
		c.Vision.Region = r
	}
}

// Validate reports configuration values no component can work with.
func (c *Config) Validate() error {
	var errs []error
	if c.Board.Rows <= 0 || c.Board.Cols <= 0 {
		errs = append(errs, fmt.Errorf("board must be at least 1x1, got %dx%d", c.Board.Rows, c.Board.Cols))
	}
	if c.Solver.URL == "" {
		errs = append(errs, errors.New("solver.url is required"))
	}
	if c.Solver.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("solver.timeout must be positive, got %s", c.Solver.Timeout))
	}
	if c.Server.UploadsPerMinute <= 0 || c.Server.EditsPerSecond <= 0 {
		errs = append(errs, errors.New("server rate limits must be positive"))
	}
	if c.Server.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("server.session_ttl must be positive, got %s", c.Server.SessionTTL))
	}
	return errors.Join(errs...)
}
