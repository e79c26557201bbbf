//go:build integration || !unit

package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	server "rentfinder/internal/adapters/http_server"
	"rentfinder/internal/adapters/memory"
	"rentfinder/internal/app"
	"rentfinder/internal/catalog"
	"rentfinder/internal/domain"
	mysqlrepo "rentfinder/internal/storage/mysql"
)

func mustEnv(t *testing.T, k string) string {
	t.Helper()
	v := os.Getenv(k)
	if v == "" {
		t.Skipf("%s not set; export it (e.g. MIGRATIONS_DIR=/path/to/migrations)", k)
	}
	return v
}

func applyMigrations(t *testing.T, db *sql.DB, dir string) {
	t.Helper()
	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

// ---------- the test ----------
func TestHTTP_EndToEnd_MySQLCatalog(t *testing.T) {
	dir := mustEnv(t, "MIGRATIONS_DIR")

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=rentfinder",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/rentfinder?parseTime=true&multiStatements=true&charset=utf8mb4&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db, dir)

	repo := mysqlrepo.New(db)
	ctx := context.Background()

	// seed through the same path the seeder CLI uses
	seed := app.NewSeedService(repo)
	for _, l := range catalog.Sample(8) {
		if err := seed.SeedListing(ctx, l); err != nil {
			t.Fatalf("seed %d: %v", l.ID, err)
		}
	}

	provider, err := catalog.Load(ctx, repo)
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}

	q := app.NewSearchService(provider, memory.New(), 30*time.Minute)
	srv := server.New(server.Options{})
	srv.MountHandlers(&server.Handlers{S: q, Images: app.NewImageStatus("/static/placeholder.svg"), SessionTTL: time.Minute})
	ts := httptest.NewServer(srv.Mux())
	defer ts.Close()

	cases := map[string][]int64{
		"noida":         {3, 7},
		"xyz123":        {},
		"Apartment%202": {2},
		"":              {1, 2, 3, 4, 5, 6, 7, 8},
	}
	for q, want := range cases {
		res, err := http.Get(ts.URL + "/v1/listings?q=" + q)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		var page domain.ListingsPage
		if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
			t.Fatalf("decode: %v", err)
		}
		res.Body.Close()

		if len(page.Items) != len(want) {
			t.Fatalf("q=%q: got %d items, want %v", q, len(page.Items), want)
		}
		for i, id := range want {
			if page.Items[i].ID != id {
				t.Fatalf("q=%q: item %d has id %d, want %d", q, i, page.Items[i].ID, id)
			}
		}
	}
}
