package browser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProxy(t *testing.T) {
	p, err := ParseProxy("10.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.1:8080", p.Server)
	assert.Empty(t, p.Username)

	p, err = ParseProxy("10.0.0.2:3128:alice:s3cret")
	require.NoError(t, err)
	assert.Equal(t, "http://10.0.0.2:3128", p.Server)
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, "s3cret", p.Password)

	_, err = ParseProxy("not-a-proxy")
	assert.Error(t, err)
}

func TestLoadProxiesSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := "# residential pool\n10.0.0.1:8080\n\n10.0.0.2:3128:alice:s3cret\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	pool, err := LoadProxies(path)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Len())
	assert.NotNil(t, pool.Pick())
}

func TestLoadProxiesEmptyFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	require.NoError(t, os.WriteFile(path, []byte("# nothing here\n"), 0644))

	_, err := LoadProxies(path)
	assert.Error(t, err)
}

func TestNilPoolPickIsSafe(t *testing.T) {
	var pool *ProxyPool
	assert.Nil(t, pool.Pick())
	assert.Zero(t, pool.Len())
}

func TestProxyToPlaywright(t *testing.T) {
	p := Proxy{Server: "http://10.0.0.1:8080", Username: "alice", Password: "s3cret"}
	pw := p.ToPlaywright()
	assert.Equal(t, "http://10.0.0.1:8080", pw.Server)
	require.NotNil(t, pw.Username)
	assert.Equal(t, "alice", *pw.Username)

	bare := Proxy{Server: "http://10.0.0.2:8080"}
	assert.Nil(t, bare.ToPlaywright().Username)
}

func TestRandomUserAgentIsStable(t *testing.T) {
	for i := 0; i < 10; i++ {
		assert.Contains(t, RandomUserAgent(), "Mozilla/5.0")
	}
}
