package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefixLongestMatchWins(t *testing.T) {
	c := NewPrefix([]Rule{
		{Name: "dataroot", Prefix: "/var/lib/app/data"},
		{Name: "cache", Prefix: "/var/lib/app/data/cache"},
		{Name: "app", Prefix: "/var/lib/app"},
	}, nil)

	tests := []struct {
		path string
		want string
	}{
		{"/var/lib/app/data/recipes.json", "dataroot"},
		{"/var/lib/app/data", "dataroot"},
		{"/var/lib/app/data/cache/x", "cache"},
		{"/var/lib/app/config.php", "app"},
		{"/var/lib/app/database/x", "app"},
		{"/etc/hosts", DefaultFallback},
		{"file:///var/lib/app/data/a", "dataroot"},
		{"file://localhost/var/lib/app/data/a", "dataroot"},
		{"/var/lib/app/data/../other", "app"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.path))
		})
	}
}

func TestPrefixComponentBoundary(t *testing.T) {
	c := NewPrefix([]Rule{{Name: "data", Prefix: "/data"}}, Fixed("misc"))

	assert.Equal(t, "data", c.Classify("/data/a"))
	assert.Equal(t, "misc", c.Classify("/database"))
	assert.Equal(t, "misc", c.Classify("relative/data"))
}

func TestPrefixURLRules(t *testing.T) {
	c := NewPrefix([]Rule{
		{Name: "api", Prefix: "https://API.example.com/"},
		{Name: "api-v2", Prefix: "https://api.example.com/v2"},
	}, Host{})

	assert.Equal(t, "api", c.Classify("HTTPS://api.Example.com/v1/items"))
	assert.Equal(t, "api-v2", c.Classify("https://api.example.com/v2/items"))
	assert.Equal(t, "cdn.example.com", c.Classify("https://cdn.example.com:8443/x.js"))
}

func TestPrefixTrailingSlashRules(t *testing.T) {
	c := NewPrefix([]Rule{
		{Name: "dataroot", Prefix: "/srv/data/"},
		{Name: "api", Prefix: "https://api.example.com/"},
	}, Host{})

	tests := []struct {
		path string
		want string
	}{
		{"/srv/data", "dataroot"},
		{"/srv/data/", "dataroot"},
		{"/srv/data/a.txt", "dataroot"},
		{"/srv/database", DefaultFallback},
		{"https://api.example.com", "api"},
		{"https://api.example.com/v1", "api"},
		{"https://api.example.com?q=1", "api"},
		{"https://API.example.com#top", "api"},
		{"https://api.example.community/x", "api.example.community"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.path))
		})
	}
	assert.Equal(t, "/srv/data", c.Rules()[1].Prefix)
}

func TestPrefixURLQueryBoundary(t *testing.T) {
	c := NewPrefix([]Rule{
		{Name: "api", Prefix: "https://api.example.com"},
		{Name: "items", Prefix: "https://api.example.com/items"},
		{Name: "local", Prefix: "/tmp/a"},
	}, nil)

	assert.Equal(t, "api", c.Classify("https://api.example.com?q=1"))
	assert.Equal(t, "items", c.Classify("https://api.example.com/items?page=2"))
	assert.Equal(t, "items", c.Classify("https://api.example.com/items#frag"))
	assert.Equal(t, "api", c.Classify("https://api.example.com/itemsx"))
	assert.Equal(t, DefaultFallback, c.Classify("/tmp/a?b"))
}

func TestPrefixRootRule(t *testing.T) {
	c := NewPrefix([]Rule{{Name: "root", Prefix: "/"}, {Name: "tmp", Prefix: "/tmp"}}, Fixed("none"))

	assert.Equal(t, "root", c.Classify("/"))
	assert.Equal(t, "root", c.Classify("/etc/hosts"))
	assert.Equal(t, "tmp", c.Classify("/tmp/x"))
	assert.Equal(t, "none", c.Classify("relative"))
}

func TestPrefixSkipsEmptyRules(t *testing.T) {
	c := NewPrefix([]Rule{{Name: "root", Prefix: ""}, {Name: "tmp", Prefix: "/tmp/"}}, nil)

	assert.Len(t, c.Rules(), 1)
	assert.Equal(t, "tmp", c.Classify("/tmp/x"))
	assert.Equal(t, DefaultFallback, c.Classify("/usr"))
}

func TestHost(t *testing.T) {
	h := Host{Fallback: "local"}

	assert.Equal(t, "example.com", h.Classify("https://Example.COM/path?q=1"))
	assert.Equal(t, "127.0.0.1", h.Classify("http://127.0.0.1:8080/"))
	assert.Equal(t, "local", h.Classify("/etc/passwd"))
	assert.Equal(t, DefaultFallback, Host{}.Classify("not a url"))
}

func TestFuncAndFixed(t *testing.T) {
	f := Func(func(p string) string { return "len" + string(rune('0'+len(p))) })
	assert.Equal(t, "len3", f.Classify("abc"))
	assert.Equal(t, "x", Fixed("x").Classify("anything"))
}
