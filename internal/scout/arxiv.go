// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scout

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/paper-digest/internal/schedule"
	"github.com/pdiddy/paper-digest/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// SourceFeed is the upstream metadata source. The arXiv implementation is
// the only production one; tests supply fakes.
type SourceFeed interface {
	// Categories returns the source taxonomy, filtered to the subject
	// area of interest.
	Categories(ctx context.Context) ([]types.Category, error)

	// Recent returns up to max entries for one category, most recently
	// submitted first.
	Recent(ctx context.Context, category string, max int) ([]Entry, error)
}

// Entry is one normalized feed entry before identifier extraction.
type Entry struct {
	// IDURL is the canonical abstract URL carrying the versioned
	// identifier (e.g. "http://arxiv.org/abs/2401.12345v2").
	IDURL string

	Title    string
	Abstract string
	Authors  []string

	// Categories lists category terms with the primary category first.
	Categories []string

	PDFURL    string
	Published time.Time
	Updated   time.Time
}

// ArxivFeed queries the arXiv Atom API.
type ArxivFeed struct {
	Client *http.Client
	Config types.ScoutConfig
}

// Categories returns the built-in computer-science taxonomy. arXiv exposes
// no taxonomy endpoint, so the table ships with the feed client and is
// upserted into the store by Scout.
func (f *ArxivFeed) Categories(_ context.Context) ([]types.Category, error) {
	out := make([]types.Category, len(csTaxonomy))
	copy(out, csTaxonomy)
	return out, nil
}

// Recent fetches the most recent submissions for one category.
func (f *ArxivFeed) Recent(ctx context.Context, category string, max int) ([]Entry, error) {
	if category == "" {
		return nil, fmt.Errorf("empty category")
	}
	if max <= 0 {
		max = 25
	}

	params := url.Values{
		"search_query": {"cat:" + category},
		"start":        {"0"},
		"max_results":  {fmt.Sprintf("%d", max)},
		"sortBy":       {"submittedDate"},
		"sortOrder":    {"descending"},
	}
	reqURL := arxivAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", f.Config.UserAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Surface the status so the scheduler can classify throttling.
		return nil, &schedule.StatusError{StatusCode: resp.StatusCode}
	}

	var feed arxivAtomFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	entries := make([]Entry, 0, len(feed.Entries))
	for _, ae := range feed.Entries {
		entries = append(entries, ae.normalize())
	}
	return entries, nil
}

// arXiv Atom feed XML structures. Repeated elements (authors, categories,
// links) decode uniformly into slices whether the feed emits one or many.
type arxivAtomFeed struct {
	Entries []arxivAtomEntry `xml:"entry"`
}

type arxivAtomEntry struct {
	ID              string          `xml:"id"`
	Title           string          `xml:"title"`
	Summary         string          `xml:"summary"`
	Published       string          `xml:"published"`
	Updated         string          `xml:"updated"`
	Authors         []arxivAuthor   `xml:"author"`
	Categories      []arxivCategory `xml:"category"`
	PrimaryCategory arxivCategory   `xml:"primary_category"`
	Links           []arxivLink     `xml:"link"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivCategory struct {
	Term string `xml:"term,attr"`
}

type arxivLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Title string `xml:"title,attr"`
	Type  string `xml:"type,attr"`
}

// normalize converts a raw Atom entry into an Entry, collapsing feed
// whitespace and putting the primary category first.
func (ae arxivAtomEntry) normalize() Entry {
	e := Entry{
		IDURL:    strings.TrimSpace(ae.ID),
		Title:    collapseWhitespace(ae.Title),
		Abstract: collapseWhitespace(ae.Summary),
	}

	for _, a := range ae.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			e.Authors = append(e.Authors, name)
		}
	}

	if ae.PrimaryCategory.Term != "" {
		e.Categories = append(e.Categories, ae.PrimaryCategory.Term)
	}
	for _, c := range ae.Categories {
		if c.Term != "" && c.Term != ae.PrimaryCategory.Term {
			e.Categories = append(e.Categories, c.Term)
		}
	}

	for _, l := range ae.Links {
		if l.Title == "pdf" || l.Type == "application/pdf" {
			e.PDFURL = l.Href
			break
		}
	}

	if t, err := time.Parse(time.RFC3339, ae.Published); err == nil {
		e.Published = t
	}
	if t, err := time.Parse(time.RFC3339, ae.Updated); err == nil {
		e.Updated = t
	}
	return e
}

// collapseWhitespace trims a string and folds internal whitespace runs
// (the feed wraps titles and abstracts with newline-plus-indent).
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// csTaxonomy is the computer-science subset of the arXiv taxonomy served by
// ArxivFeed.Categories.
var csTaxonomy = []types.Category{
	{ID: "cs.AI", Name: "Artificial Intelligence", Description: "Covers all areas of AI except Vision, Robotics, Machine Learning, Multiagent Systems, and Computation and Language."},
	{ID: "cs.CL", Name: "Computation and Language", Description: "Covers natural language processing."},
	{ID: "cs.CV", Name: "Computer Vision and Pattern Recognition", Description: "Covers image processing, computer vision, pattern recognition, and scene understanding."},
	{ID: "cs.CR", Name: "Cryptography and Security", Description: "Covers all areas of cryptography and security."},
	{ID: "cs.DB", Name: "Databases", Description: "Covers database management, datamining, and data processing."},
	{ID: "cs.DC", Name: "Distributed, Parallel, and Cluster Computing", Description: "Covers fault-tolerance, distributed algorithms, parallelism, and cluster computing."},
	{ID: "cs.DS", Name: "Data Structures and Algorithms", Description: "Covers data structures and analysis of algorithms."},
	{ID: "cs.HC", Name: "Human-Computer Interaction", Description: "Covers human factors, user interfaces, and collaborative computing."},
	{ID: "cs.IR", Name: "Information Retrieval", Description: "Covers indexing, dictionaries, retrieval, content and analysis."},
	{ID: "cs.LG", Name: "Machine Learning", Description: "Papers on all aspects of machine learning research."},
	{ID: "cs.MA", Name: "Multiagent Systems", Description: "Covers multiagent systems, distributed artificial intelligence, and coordination."},
	{ID: "cs.NE", Name: "Neural and Evolutionary Computing", Description: "Covers neural networks, connectionism, genetic algorithms, and artificial life."},
	{ID: "cs.RO", Name: "Robotics", Description: "Roughly includes material in ACM Subject Class I.2.9."},
	{ID: "cs.SE", Name: "Software Engineering", Description: "Covers design tools, software metrics, testing and debugging, and programming environments."},
	{ID: "stat.ML", Name: "Machine Learning (Statistics)", Description: "Covers machine learning papers with a statistical or theoretical grounding."},
}
