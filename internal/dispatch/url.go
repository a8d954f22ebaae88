package dispatch

import (
	"net/url"
	"strings"
)

// inverted language defaults to English when no language parameter is
// given; every other domain defaults to no prefix at all (spec.md
// §4.2 step 6 / §GLOSSARY's "Inverted-language domain").
const portugueseLanguage = "pt"

// applyLanguagePrefix implements spec.md §4.2 step 6: prepend a
// language prefix to the pathname component only.
func applyLanguagePrefix(rawURL, language string, inverted bool) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	prefix := ""
	if inverted {
		switch {
		case language == "" || language == "en":
			prefix = "/en"
		case language == portugueseLanguage:
			prefix = ""
		default:
			prefix = "/" + language
		}
	} else {
		if language != "" {
			prefix = "/" + language
		}
	}

	if prefix != "" {
		u.Path = prefix + u.Path
	}
	return u.String(), nil
}

// utmParams is the bag of tracking parameters spec.md §4.2 step 7
// decorates the destination URL with.
type utmParams struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
	FBClid   string
	GClid    string
}

// decorate appends the UTM query bag to rawURL in spec.md §8's stated
// order (utm_source, utm_medium, utm_campaign, then the optional
// params), percent-encoding each value. Built by hand rather than via
// url.Values.Encode(), which sorts keys alphabetically and would
// scramble that order.
func decorate(rawURL string, p utmParams) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parts := []string{
		"utm_source=" + url.QueryEscape(p.Source),
		"utm_medium=" + url.QueryEscape(p.Medium),
		"utm_campaign=" + url.QueryEscape(p.Campaign),
	}
	if p.Term != "" {
		parts = append(parts, "utm_term="+url.QueryEscape(p.Term))
	}
	if p.Content != "" {
		parts = append(parts, "utm_content="+url.QueryEscape(p.Content))
	}
	if p.FBClid != "" {
		parts = append(parts, "fbclid="+url.QueryEscape(p.FBClid))
	}
	if p.GClid != "" {
		parts = append(parts, "gclid="+url.QueryEscape(p.GClid))
	}

	if u.RawQuery != "" {
		u.RawQuery = u.RawQuery + "&" + strings.Join(parts, "&")
	} else {
		u.RawQuery = strings.Join(parts, "&")
	}
	return u.String(), nil
}

// requestUTM builds the utmParams bag per spec.md §4.2 step 7's
// fallback rules, given the values pulled from the inbound request's
// query string and the linkId chosen in step 5.
func requestUTM(source, medium, campaign, term, content, fbclid, gclid, linkID string) utmParams {
	p := utmParams{
		Source:  source,
		Medium:  medium,
		Term:    term,
		Content: content,
		FBClid:  fbclid,
		GClid:   gclid,
	}
	if p.Source == "" {
		p.Source = "redron"
	}
	if p.Medium == "" {
		p.Medium = "broadcast"
	}
	p.Campaign = campaign
	if p.Campaign == "" {
		p.Campaign = linkID
	}
	if p.Campaign == "" {
		p.Campaign = "direct"
	}
	return p
}
