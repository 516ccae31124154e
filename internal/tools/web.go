package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

func (e *Executor) getJSON(ctx context.Context, base string, q url.Values, out any) error {
	u, err := url.Parse(base)
	if err != nil {
		return err
	}
	u.RawQuery = q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "eigend/1.0")
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type ddgTopic struct {
	Text     string `json:"Text"`
	FirstURL string `json:"FirstURL"`
}

type ddgResponse struct {
	AbstractText   string     `json:"AbstractText"`
	AbstractSource string     `json:"AbstractSource"`
	AbstractURL    string     `json:"AbstractURL"`
	Heading        string     `json:"Heading"`
	RelatedTopics  []ddgTopic `json:"RelatedTopics"`
	Results        []ddgTopic `json:"Results"`
}

func (e *Executor) webSearch(ctx context.Context, callID string, a args) Result {
	query, ok := a.str("query")
	if !ok {
		return missing(callID, "query")
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("no_html", "1")
	q.Set("skip_disambig", "1")
	var data ddgResponse
	if err := e.getJSON(ctx, e.ddgURL, q, &data); err != nil {
		return failure(callID, "Failed to perform web search: %v", err)
	}

	var b strings.Builder
	if data.AbstractText != "" {
		fmt.Fprintf(&b, "# %s\n\n%s\n\n", data.Heading, data.AbstractText)
		if data.AbstractURL != "" {
			fmt.Fprintf(&b, "Source: %s (%s)\n\n", data.AbstractSource, data.AbstractURL)
		}
	}
	if len(data.Results) > 0 {
		b.WriteString("## Results:\n")
		for _, r := range first(data.Results, 5) {
			if r.Text == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s\n", r.Text)
			if r.FirstURL != "" {
				fmt.Fprintf(&b, "  URL: %s\n", r.FirstURL)
			}
		}
		b.WriteString("\n")
	}
	if len(data.RelatedTopics) > 0 {
		b.WriteString("## Related:\n")
		for _, t := range first(data.RelatedTopics, 5) {
			if t.Text != "" {
				fmt.Fprintf(&b, "- %s\n", t.Text)
			}
		}
	}
	if b.Len() == 0 {
		return success(callID, fmt.Sprintf("No instant answer available for '%s'. Try a more specific query or use Wikipedia for detailed information.", query))
	}
	return success(callID, b.String())
}

type wikiSearchResponse struct {
	Query *struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
			PageID  uint64 `json:"pageid"`
		} `json:"search"`
	} `json:"query"`
}

type wikiContentResponse struct {
	Query *struct {
		Pages map[string]struct {
			Title   string  `json:"title"`
			Extract *string `json:"extract"`
		} `json:"pages"`
	} `json:"query"`
}

func (e *Executor) wikipedia(ctx context.Context, callID string, a args) Result {
	query, ok := a.str("query")
	if !ok {
		return missing(callID, "query")
	}
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("format", "json")
	q.Set("srlimit", "3")
	var search wikiSearchResponse
	if err := e.getJSON(ctx, e.wikipediaURL, q, &search); err != nil {
		return failure(callID, "Failed to search Wikipedia: %v", err)
	}
	if search.Query == nil || len(search.Query.Search) == 0 {
		return success(callID, fmt.Sprintf("No Wikipedia articles found for '%s'", query))
	}
	results := search.Query.Search
	title := results[0].Title

	q = url.Values{}
	q.Set("action", "query")
	q.Set("titles", title)
	q.Set("prop", "extracts")
	q.Set("exintro", "true")
	q.Set("explaintext", "true")
	q.Set("format", "json")
	var content wikiContentResponse
	if err := e.getJSON(ctx, e.wikipediaURL, q, &content); err != nil {
		return failure(callID, "Failed to fetch Wikipedia article: %v", err)
	}
	extract := "No content available"
	if content.Query != nil {
		for _, p := range content.Query.Pages {
			if p.Extract != nil {
				extract = *p.Extract
			}
			break
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n%s\n\n", title, extract)
	if len(results) > 1 {
		b.WriteString("## Related articles:\n")
		for _, r := range results[1:] {
			fmt.Fprintf(&b, "- **%s**: %s\n", r.Title, stripTags(r.Snippet))
		}
	}
	return success(callID, b.String())
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func first[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
