// README: Benchmark cases; includes HTTP contract, cache, research log, concurrency, and performance checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// tinyPNG is a 1x1 transparent PNG.
const tinyPNG = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 150 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency.Round(time.Millisecond))
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	term := r.cfg.Term
	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "research_log storage reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "record cache reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "apply migration SQL",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "tables from the migration file exist",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		httpCaseMethod("API: health", http.MethodGet, base+"/health", nil, []int{200}, nil),

		// Request validation
		httpCase("Research: empty name -> 400", base+"/api/ollama/location-research", map[string]any{
			"locationName": "  ",
		}, []int{400}, nil),
		httpCase("Image: missing image -> 400", base+"/api/ollama/image-analyze", map[string]any{}, []int{400}, nil),
		httpCase("Image: invalid base64 -> 400", base+"/api/ollama/image-analyze", map[string]any{
			"imageData": "@@@",
		}, []int{400}, nil),

		// Pipeline
		{
			Name:  "Research: full record",
			Focus: "every field of the record is present",
			Run: func(ctx context.Context, r *Runner) Result {
				return researchCase(ctx, r, base, map[string]any{"locationName": term})
			},
		},
		{
			Name:  "Research: history only",
			Focus: "plain history text",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				env, status, err := postEnvelope(ctx, r, base+"/api/ollama/location-research", map[string]any{
					"locationName": term,
					"searchType":   "history",
				})
				latency := time.Since(start)
				if err != nil {
					return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
				}
				if status != http.StatusOK {
					return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
				}
				if !env.Success {
					return Result{Status: "PENDING", Latency: latency, Note: "fallback: " + env.Error}
				}
				var data struct {
					History string `json:"history"`
				}
				if err := json.Unmarshal(env.Data, &data); err != nil || strings.TrimSpace(data.History) == "" {
					return Result{Status: "FAIL", Latency: latency, Note: "empty history"}
				}
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("chars=%d", len([]rune(data.History)))}
			},
		},
		{
			Name:  "Image: ollama analyze",
			Focus: "photo analysis returns a record or the vision placeholder",
			Run: func(ctx context.Context, r *Runner) Result {
				return imageCase(ctx, r, base+"/api/ollama/image-analyze")
			},
		},
		{
			Name:  "Image: gemini analyze",
			Focus: "photo analysis via Gemini",
			Run: func(ctx context.Context, r *Runner) Result {
				return imageCase(ctx, r, base+"/api/gemini/image-analyze")
			},
		},

		// Side stores
		{
			Name:  "Cache: record stored in Redis",
			Focus: "successful research is cached",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "SKIP", Note: "redis not configured"}
				}
				key := "research:search:" + strings.ToLower(strings.Join(strings.Fields(term), " "))
				n, err := r.redis.Exists(ctx, key).Result()
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: "PENDING", Note: "no cache entry (fallback or cache disabled on server)"}
				}
				ttl, _ := r.redis.TTL(ctx, key).Result()
				return Result{Status: "PASS", Note: "ttl=" + ttl.String()}
			},
		},
		{
			Name:  "Research log: runs journaled",
			Focus: "research_log rows written",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "SKIP", Note: "db not configured"}
				}
				var n int
				if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM research_log WHERE term=$1", term).Scan(&n); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				if n == 0 {
					return Result{Status: "FAIL", Note: "no rows for " + term}
				}
				return Result{Status: "PASS", Note: fmt.Sprintf("rows=%d", n)}
			},
		},
		httpCaseMethod("Research log: recent listing", http.MethodGet, base+"/api/research/recent?limit=5", nil, []int{200}, []int{503}),

		manualCase("Fallback: provider down", "stop Ollama and expect success=false with a complete record"),
		manualCase("Fallback: vision model missing", "unset the vision model and expect the placeholder record"),

		// Concurrency
		{
			Name:  "Concurrency: distinct terms",
			Focus: "concurrent requests keep their own search term",
			Run: func(ctx context.Context, r *Runner) Result {
				return concurrentTerms(ctx, r, base+"/api/ollama/location-research")
			},
		},

		// Performance
		{
			Name:  "Perf: cached research throughput",
			Focus: "cache hits answer without the provider",
			Run: func(ctx context.Context, r *Runner) Result {
				return perfLoad(ctx, r, base+"/api/ollama/location-research", map[string]any{
					"locationName": term,
				})
			},
		},
	}
}

func httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func postEnvelope(ctx context.Context, r *Runner, url string, body any) (envelope, int, error) {
	var env envelope
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
	if err != nil {
		return env, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.httpc.Do(req)
	if err != nil {
		return env, 0, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return env, resp.StatusCode, err
	}
	return env, resp.StatusCode, nil
}

// missingFields lists record fields that are absent or empty.
func missingFields(raw json.RawMessage) []string {
	var rec map[string]any
	if err := json.Unmarshal(raw, &rec); err != nil {
		return []string{"<not an object>"}
	}
	var missing []string
	for _, k := range []string{"name", "description", "history", "image_suggestion"} {
		if s, _ := rec[k].(string); strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	if _, ok := rec["activities"].([]any); !ok {
		missing = append(missing, "activities")
	}
	if _, ok := rec["info"].(map[string]any); !ok {
		missing = append(missing, "info")
	}
	return missing
}

func researchCase(ctx context.Context, r *Runner, base string, body map[string]any) Result {
	start := time.Now()
	env, status, err := postEnvelope(ctx, r, base+"/api/ollama/location-research", body)
	latency := time.Since(start)
	if err != nil {
		return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
	}
	if missing := missingFields(env.Data); len(missing) > 0 {
		return Result{Status: "FAIL", Latency: latency, Note: "missing " + strings.Join(missing, ",")}
	}
	if !env.Success {
		return Result{Status: "PENDING", Latency: latency, Note: "fallback: " + env.Error}
	}
	return Result{Status: "PASS", Latency: latency}
}

func imageCase(ctx context.Context, r *Runner, url string) Result {
	start := time.Now()
	env, status, err := postEnvelope(ctx, r, url, map[string]any{"imageData": "data:image/png;base64," + tinyPNG})
	latency := time.Since(start)
	if err != nil {
		return Result{Status: "FAIL", Latency: latency, Note: err.Error()}
	}
	if status == http.StatusInternalServerError {
		return Result{Status: "PENDING", Latency: latency, Note: env.Error}
	}
	if status != http.StatusOK {
		return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", status)}
	}
	if missing := missingFields(env.Data); len(missing) > 0 {
		return Result{Status: "FAIL", Latency: latency, Note: "missing " + strings.Join(missing, ",")}
	}
	return Result{Status: "PASS", Latency: latency}
}

func concurrentTerms(ctx context.Context, r *Runner, url string) Result {
	terms := []string{"Hà Nội", "Huế", "Đà Nẵng", "Đà Lạt", "Cần Thơ", "Sa Pa", "Nha Trang", "Phú Quốc"}
	n := r.cfg.Concurrency
	if n > len(terms) {
		n = len(terms)
	}

	wg := sync.WaitGroup{}
	mu := sync.Mutex{}
	shaped, fallbacks := 0, 0
	var failures []string

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(term string) {
			defer wg.Done()
			env, status, err := postEnvelope(ctx, r, url, map[string]any{"locationName": term})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				failures = append(failures, term+": "+err.Error())
			case status != http.StatusOK:
				failures = append(failures, fmt.Sprintf("%s: status=%d", term, status))
			case len(missingFields(env.Data)) > 0:
				failures = append(failures, term+": incomplete record")
			default:
				shaped++
				if !env.Success {
					fallbacks++
				}
			}
		}(terms[i])
	}
	wg.Wait()

	if len(failures) > 0 {
		return Result{Status: "FAIL", Note: strings.Join(failures, "; ")}
	}
	return Result{Status: "PASS", Note: fmt.Sprintf("records=%d fallbacks=%d", shaped, fallbacks)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					if ctx.Err() != nil {
						return
					}
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
