package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.True(t, cfg.Browser.Headless)
	require.Equal(t, 10*time.Second, cfg.Browser.WaitTimeout.Std())
	require.Equal(t, "test", cfg.Crawl.Query)
}

func TestLoadYAMLWithLocalOverrides(t *testing.T) {
	t.Setenv("PORT", "")
	dir := t.TempDir()
	path := write(t, dir, "clerk.yaml", `
browser:
  headless: false
  wait_timeout: 5s
crawl:
  query: budget
  max_results: 10
cache:
  ttl: 3600
`)
	write(t, dir, "clerk.local.yaml", `
crawl:
  query: zoning
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.Browser.Headless)
	require.Equal(t, 5*time.Second, cfg.Browser.WaitTimeout.Std())
	require.Equal(t, "zoning", cfg.Crawl.Query)
	require.Equal(t, 10, cfg.Crawl.MaxResults)
	require.Equal(t, time.Hour, cfg.Cache.TTL.Std())

	// untouched keys keep their defaults
	require.Equal(t, 60*time.Second, cfg.Browser.PageTimeout.Std())
	require.True(t, cfg.Crawl.Attachments)
	require.Equal(t, DefaultSite(), cfg.Site)
}

func TestLoadJSON5(t *testing.T) {
	t.Setenv("PORT", "")
	path := write(t, t.TempDir(), "clerk.json5", `{
  // scrape without popups
  crawl: {attachments: false, delay: "250ms"},
  server: {addr: ":9090",},
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.False(t, cfg.Crawl.Attachments)
	require.Equal(t, 250*time.Millisecond, cfg.Crawl.Delay.Std())
	require.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("CLERK_QUERY", "housing")
	t.Setenv("CLERK_HEADLESS", "false")
	t.Setenv("CLERK_MAX_RESULTS", "7")
	t.Setenv("CLERK_WAIT_TIMEOUT", "3s")
	t.Setenv("PORT", "9000")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "housing", cfg.Crawl.Query)
	require.False(t, cfg.Browser.Headless)
	require.Equal(t, 7, cfg.Crawl.MaxResults)
	require.Equal(t, 3*time.Second, cfg.Browser.WaitTimeout.Std())
	require.Equal(t, ":9000", cfg.Server.Addr)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	_, err = Load(write(t, dir, "clerk.toml", "a = 1"))
	require.ErrorContains(t, err, "unsupported config format")

	_, err = Load(write(t, dir, "bad.yaml", "browser: [1, 2"))
	require.ErrorContains(t, err, "failed to parse")

	_, err = Load(write(t, dir, "pool.yaml", "browser:\n  pool_size: 0\n"))
	require.ErrorContains(t, err, "invalid configuration")

	t.Setenv("CLERK_MAX_PAGES", "many")
	_, err = Load("")
	require.ErrorContains(t, err, "CLERK_MAX_PAGES")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Site.RecordURL = "https://cityclerk.lacity.org/viewrecord"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Site.SearchURL = "not a url"
	require.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Cache.Addr = "localhost:6379"
	require.NoError(t, cfg.Validate())
}

func TestApply(t *testing.T) {
	cfg := Default()

	var o Config
	o.Crawl.MaxResults = 3
	o.Output.Dir = "/tmp/out"
	require.NoError(t, cfg.Apply(o))

	require.Equal(t, 3, cfg.Crawl.MaxResults)
	require.Equal(t, "/tmp/out", cfg.Output.Dir)
	require.Equal(t, "test", cfg.Crawl.Query)
	require.True(t, cfg.Browser.Headless)

	o = Config{}
	o.Browser.PoolSize = 99
	require.Error(t, cfg.Apply(o))
}

func TestDuration(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Duration
	}{
		{`"10s"`, 10 * time.Second},
		{`15`, 15 * time.Second},
		{`"1.5"`, 1500 * time.Millisecond},
		{`"2m30s"`, 150 * time.Second},
		{`""`, 0},
	}
	for _, tt := range tests {
		var d Duration
		require.NoError(t, json.Unmarshal([]byte(tt.raw), &d), tt.raw)
		require.Equal(t, tt.want, d.Std(), tt.raw)
	}

	var d Duration
	require.Error(t, json.Unmarshal([]byte(`"soon"`), &d))

	var withNull struct {
		Delay Duration `json:"delay"`
	}
	withNull.Delay = Duration(time.Second)
	require.NoError(t, json.Unmarshal([]byte(`{"delay": null}`), &withNull))
	require.Equal(t, time.Second, withNull.Delay.Std())

	b, err := json.Marshal(Duration(90 * time.Second))
	require.NoError(t, err)
	require.Equal(t, `"1m30s"`, string(b))

	var out struct {
		D Duration `yaml:"d"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("d: 45s"), &out))
	require.Equal(t, 45*time.Second, out.D.Std())
}

func TestSite(t *testing.T) {
	s := DefaultSite()
	require.Equal(t,
		"https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewrecord&cfnumber=20-0002-S64",
		s.RecordURLFor(" 20-0002-S64 "))

	require.Equal(t,
		"https://cityclerk.lacity.org/onlinedocs/2020/a.pdf",
		ResolveURL("https://cityclerk.lacity.org/lacityclerkconnect/index.cfm?fa=ccfi.viewrecord", "/onlinedocs/2020/a.pdf"))
	require.Equal(t, "https://clkrep.lacity.org/x.pdf", ResolveURL("https://cityclerk.lacity.org/", "https://clkrep.lacity.org/x.pdf"))
	require.Equal(t, "", ResolveURL("https://cityclerk.lacity.org/", "  "))
	require.Equal(t, "relative.pdf", ResolveURL("", "relative.pdf"))
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("conf", "clerk.local.yaml"), localPath(filepath.Join("conf", "clerk.yaml")))
}
