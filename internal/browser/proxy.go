package browser

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strings"

	"github.com/playwright-community/playwright-go"
)

// Proxy is one upstream proxy endpoint, optionally authenticated.
type Proxy struct {
	Server   string
	Username string
	Password string
}

func (p *Proxy) ToPlaywright() *playwright.Proxy {
	out := &playwright.Proxy{Server: p.Server}
	if p.Username != "" {
		out.Username = playwright.String(p.Username)
		out.Password = playwright.String(p.Password)
	}
	return out
}

// ProxyPool is a set of proxies picked from at random per session.
type ProxyPool struct {
	proxies []Proxy
}

// LoadProxies reads one proxy per line in host:port or host:port:user:pass
// form. Blank lines and # comments are skipped.
func LoadProxies(path string) (*ProxyPool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open proxy file: %w", err)
	}
	defer f.Close()

	var proxies []Proxy
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		proxy, err := ParseProxy(line)
		if err != nil {
			return nil, err
		}
		proxies = append(proxies, proxy)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not read proxy file: %w", err)
	}
	if len(proxies) == 0 {
		return nil, fmt.Errorf("proxy file %s contains no proxies", path)
	}
	return &ProxyPool{proxies: proxies}, nil
}

func ParseProxy(line string) (Proxy, error) {
	parts := strings.Split(line, ":")
	switch len(parts) {
	case 2:
		return Proxy{Server: "http://" + parts[0] + ":" + parts[1]}, nil
	case 4:
		return Proxy{
			Server:   "http://" + parts[0] + ":" + parts[1],
			Username: parts[2],
			Password: parts[3],
		}, nil
	default:
		return Proxy{}, fmt.Errorf("malformed proxy line %q", line)
	}
}

func (p *ProxyPool) Pick() *Proxy {
	if p == nil || len(p.proxies) == 0 {
		return nil
	}
	proxy := p.proxies[rand.Intn(len(p.proxies))]
	return &proxy
}

func (p *ProxyPool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.proxies)
}

var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36",
}

// RandomUserAgent returns a plausible recent desktop Chrome identity.
func RandomUserAgent() string {
	return userAgents[rand.Intn(len(userAgents))]
}
