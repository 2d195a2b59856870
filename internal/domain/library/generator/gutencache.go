package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"storybook/internal/domain/story"
)

const (
	DefaultGutendexURL = "https://gutendex.com"
	gutenbergProvider  = "gutenberg"
	catalogFile        = "gutenberg_catalog.json"
	// upper bound on a downloaded book, enough for any picture book
	maxBookBytes = 4 << 20
)

// GutenCache fetches children's books from Gutendex and caches the catalog
// and downloaded texts on disk.
type GutenCache struct {
	baseURL    string
	cacheDir   string
	cacheFile  string
	maxAge     time.Duration
	pause      time.Duration
	httpClient *http.Client
	pager      Paginator
}

// GutendexResponse represents the API response structure
type GutendexResponse struct {
	Count    int            `json:"count"`
	Next     *string        `json:"next"`
	Previous *string        `json:"previous"`
	Results  []GutendexBook `json:"results"`
}

// GutendexBook represents a book from the Gutendex API
type GutendexBook struct {
	ID            int               `json:"id"`
	Title         string            `json:"title"`
	Authors       []Author          `json:"authors"`
	Subjects      []string          `json:"subjects"`
	Languages     []string          `json:"languages"`
	Formats       map[string]string `json:"formats"`
	DownloadCount int               `json:"download_count"`
}

// Author represents an author from the API
type Author struct {
	Name      string `json:"name"`
	BirthYear *int   `json:"birth_year"`
	DeathYear *int   `json:"death_year"`
}

// CachedCatalog is the on-disk form of the catalog
type CachedCatalog struct {
	Resources   []*story.OnlineResource `json:"resources"`
	LastUpdated time.Time               `json:"last_updated"`
}

// Option configures a GutenCache.
type Option func(*GutenCache)

// WithBaseURL points the cache at another Gutendex deployment.
func WithBaseURL(url string) Option {
	return func(gc *GutenCache) { gc.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(gc *GutenCache) { gc.httpClient = c }
}

// WithRequestPause sets the delay between consecutive catalog queries.
func WithRequestPause(d time.Duration) Option {
	return func(gc *GutenCache) { gc.pause = d }
}

// WithPaginator replaces the page splitting rules.
func WithPaginator(p Paginator) Option {
	return func(gc *GutenCache) { gc.pager = p }
}

// NewGutenbergCache creates a new Gutenberg cache instance
func NewGutenbergCache(cacheDir string, maxAge time.Duration, opts ...Option) *GutenCache {
	if err := os.MkdirAll(filepath.Join(cacheDir, "books"), 0755); err != nil {
		logrus.WithError(err).Warn("Failed to create cache directory")
	}

	gc := &GutenCache{
		baseURL:   DefaultGutendexURL,
		cacheDir:  cacheDir,
		cacheFile: filepath.Join(cacheDir, catalogFile),
		maxAge:    maxAge,
		pause:     500 * time.Millisecond,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pager: DefaultPaginator(),
	}
	for _, opt := range opts {
		opt(gc)
	}
	return gc
}

// ListOnlineResources returns the catalog, from cache when fresh. A failed
// refresh falls back to a stale cache.
func (gc *GutenCache) ListOnlineResources(ctx context.Context) ([]*story.OnlineResource, error) {
	if gc.isCacheFresh() {
		logrus.Debug("Loading Gutenberg catalog from cache")
		return gc.loadFromCache()
	}

	logrus.Debug("Fetching fresh Gutenberg catalog from API")
	resources, err := gc.fetchFromAPI(ctx)
	if err != nil {
		logrus.WithError(err).Warn("API fetch failed, trying stale cache")
		if cached, cacheErr := gc.loadFromCache(); cacheErr == nil {
			return cached, nil
		}
		return nil, fmt.Errorf("failed to fetch from API and no cache available: %w", err)
	}

	if err := gc.saveToCache(resources); err != nil {
		logrus.WithError(err).Warn("Failed to save to cache")
	}

	return resources, nil
}

// Find looks a resource up by id in the catalog.
func (gc *GutenCache) Find(ctx context.Context, id string) (*story.OnlineResource, error) {
	resources, err := gc.ListOnlineResources(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range resources {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("book %s not in the Gutenberg catalog", id)
}

// LoadResource downloads the book text, or reads it from cache, and
// paginates it into a storybook.
func (gc *GutenCache) LoadResource(ctx context.Context, r *story.OnlineResource) (*story.Book, error) {
	if r == nil {
		return nil, fmt.Errorf("nil gutenberg resource")
	}
	if !strings.HasPrefix(r.URL, "http") {
		return nil, fmt.Errorf("invalid url: %s", r.URL)
	}

	text, err := gc.bookText(ctx, r)
	if err != nil {
		return nil, err
	}

	book := &story.Book{
		ID:          r.ID,
		Title:       r.Name,
		Author:      r.Author,
		Description: r.Description,
		Language:    r.Metadata["language"],
		Pages:       gc.pager.Paginate(StripGutenbergBoilerplate(text)),
	}
	if err := book.Normalize(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"book":  book.ID,
		"pages": book.Len(),
	}).Debug("Paginated Gutenberg book")
	return book, nil
}

func (gc *GutenCache) bookPath(id string) string {
	return filepath.Join(gc.cacheDir, "books", id+".txt")
}

func (gc *GutenCache) bookText(ctx context.Context, r *story.OnlineResource) (string, error) {
	path := gc.bookPath(r.ID)
	if data, err := os.ReadFile(path); err == nil {
		return string(data), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch text: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBookBytes))
	if err != nil {
		return "", fmt.Errorf("read error: %w", err)
	}

	if err := os.WriteFile(path, body, 0644); err != nil {
		logrus.WithError(err).WithField("file", path).Warn("Failed to cache book text")
	}
	return string(body), nil
}

// isCacheFresh checks if the cache file exists and is within the max age
func (gc *GutenCache) isCacheFresh() bool {
	info, err := os.Stat(gc.cacheFile)
	if err != nil {
		return false
	}

	return time.Since(info.ModTime()) < gc.maxAge
}

// loadFromCache loads the catalog from the cache file
func (gc *GutenCache) loadFromCache() ([]*story.OnlineResource, error) {
	file, err := os.Open(gc.cacheFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var cached CachedCatalog
	if err := json.NewDecoder(file).Decode(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode cache file: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"books":        len(cached.Resources),
		"last_updated": cached.LastUpdated.Format(time.RFC3339),
	}).Debug("Loaded Gutenberg catalog from cache")

	return cached.Resources, nil
}

// saveToCache saves the catalog to the cache file
func (gc *GutenCache) saveToCache(resources []*story.OnlineResource) error {
	cached := CachedCatalog{
		Resources:   resources,
		LastUpdated: time.Now(),
	}

	file, err := os.Create(gc.cacheFile)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cached); err != nil {
		return fmt.Errorf("failed to encode cache data: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"books": len(resources),
		"file":  gc.cacheFile,
	}).Debug("Saved Gutenberg catalog to cache")

	return nil
}

// fetchFromAPI queries Gutendex for children's books
func (gc *GutenCache) fetchFromAPI(ctx context.Context) ([]*story.OnlineResource, error) {
	queries := []string{
		"?topic=children",
		"?topic=juvenile",
		"?topic=fairy",
		"?search=children%20story",
		"?search=bedtime%20story",
	}

	var resources []*story.OnlineResource
	seen := make(map[int]bool)
	var lastErr error

	for i, query := range queries {
		if i > 0 && gc.pause > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(gc.pause):
			}
		}

		url := gc.baseURL + "/books/" + query + "&languages=en"
		books, err := gc.fetchBooks(ctx, url)
		if err != nil {
			logrus.WithError(err).WithField("url", url).Warn("Failed to fetch from URL")
			lastErr = err
			continue
		}

		for _, book := range books {
			if seen[book.ID] {
				continue
			}
			seen[book.ID] = true
			if r := gc.toResource(book); r != nil {
				resources = append(resources, r)
			}
		}
	}

	if len(resources) == 0 && lastErr != nil {
		return nil, lastErr
	}

	logrus.WithField("count", len(resources)).Debug("Fetched Gutenberg catalog from API")
	return resources, nil
}

func (gc *GutenCache) fetchBooks(ctx context.Context, url string) ([]GutendexBook, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", url, err)
	}
	resp, err := gc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d for URL %s", resp.StatusCode, url)
	}

	var response GutendexResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	return response.Results, nil
}

// toResource converts a Gutendex book, or returns nil when it is not a
// readable children's book.
func (gc *GutenCache) toResource(book GutendexBook) *story.OnlineResource {
	if !isChildrensSuitable(book) {
		return nil
	}
	contentURL := bestTextFormat(book.Formats)
	if contentURL == "" {
		return nil
	}

	authorName := "Unknown"
	if len(book.Authors) > 0 {
		authorName = book.Authors[0].Name
	}
	lang := "en-US"
	if len(book.Languages) > 0 && book.Languages[0] != "en" {
		lang = book.Languages[0]
	}

	return &story.OnlineResource{
		ID:          "gutenberg-" + strconv.Itoa(book.ID),
		Name:        cleanTitle(book.Title),
		Author:      authorName,
		Description: createDescription(book),
		Provider:    gutenbergProvider,
		Metadata: map[string]string{
			"subjects":  strings.Join(book.Subjects, "; "),
			"downloads": strconv.Itoa(book.DownloadCount),
			"language":  lang,
		},
		URL: contentURL,
	}
}

// isChildrensSuitable checks if a book is suitable for children
func isChildrensSuitable(book GutendexBook) bool {
	titleLower := strings.ToLower(book.Title)

	childrenKeywords := []string{
		"children", "child", "juvenile", "young", "fairy", "tale", "story",
		"bedtime", "nursery", "adventure", "magic", "animal", "fantasy",
	}
	for _, keyword := range childrenKeywords {
		if strings.Contains(titleLower, keyword) {
			return true
		}
	}

	for _, subject := range book.Subjects {
		subjectLower := strings.ToLower(subject)
		if strings.Contains(subjectLower, "children") ||
			strings.Contains(subjectLower, "juvenile") ||
			strings.Contains(subjectLower, "fairy") {
			return true
		}
	}

	return false
}

// bestTextFormat prefers plain text; storybooks are narrated, not rendered
func bestTextFormat(formats map[string]string) string {
	preferred := []string{
		"text/plain; charset=utf-8",
		"text/plain; charset=us-ascii",
		"text/plain",
	}
	for _, format := range preferred {
		if url, ok := formats[format]; ok {
			return url
		}
	}
	return ""
}

func createDescription(book GutendexBook) string {
	if len(book.Subjects) > 0 {
		return fmt.Sprintf("A classic tale from Project Gutenberg. %s", book.Subjects[0])
	}
	return "A classic children's story from Project Gutenberg's free digital library."
}

func cleanTitle(title string) string {
	clean := strings.TrimSpace(title)
	clean = strings.Replace(clean, "(English)", "", 1)
	return strings.TrimSpace(clean)
}

// ClearCache removes the catalog and every downloaded book
func (gc *GutenCache) ClearCache() error {
	if err := os.Remove(gc.cacheFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	if err := os.RemoveAll(filepath.Join(gc.cacheDir, "books")); err != nil {
		return fmt.Errorf("failed to clear cached books: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(gc.cacheDir, "books"), 0755); err != nil {
		return fmt.Errorf("failed to recreate cache directory: %w", err)
	}
	logrus.Debug("Cleared Gutenberg cache")
	return nil
}

// CacheInfo describes the catalog cache file
type CacheInfo struct {
	Exists       bool
	Path         string
	Size         int64
	LastModified time.Time
	Fresh        bool
	MaxAge       time.Duration
}

// GetCacheInfo returns information about the cache
func (gc *GutenCache) GetCacheInfo() CacheInfo {
	info := CacheInfo{Path: gc.cacheFile, MaxAge: gc.maxAge}
	if stat, err := os.Stat(gc.cacheFile); err == nil {
		info.Exists = true
		info.Size = stat.Size()
		info.LastModified = stat.ModTime()
		info.Fresh = gc.isCacheFresh()
	}
	return info
}
