package scan

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/crumb/internal/attribution"
)

// ThirdPartyScriptHosts returns the hosts of <script src> elements in html
// whose registrable domain differs from pageURL's. Relative sources resolve
// against pageURL and are therefore first-party.
func ThirdPartyScriptHosts(pageURL, html string) ([]string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	site := attribution.RegistrableDomain(base.Hostname())
	var hosts []string
	doc.Find("script[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		ref, err := url.Parse(strings.TrimSpace(src))
		if err != nil {
			return
		}
		host := base.ResolveReference(ref).Hostname()
		if host == "" || attribution.RegistrableDomain(host) == site {
			return
		}
		hosts = append(hosts, host)
	})
	return dedupeHosts(hosts), nil
}
