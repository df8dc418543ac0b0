package index

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/bmatcuk/doublestar/v4"
)

// ContextIndex provides full-text search over finding captures and their
// surrounding bytes using a Bleve in-memory index. Document ids are finding ids.
type ContextIndex struct {
	mu    sync.RWMutex
	index bleve.Index
}

// NewContextIndex creates a new in-memory Bleve index.
func NewContextIndex() (*ContextIndex, error) {
	bleveIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return &ContextIndex{index: bleveIndex}, nil
}

// bleveDocument is the document structure stored in Bleve.
type bleveDocument struct {
	Tag     string `json:"tag"`
	Path    string `json:"path"`
	Capture string `json:"capture"`
	Context string `json:"context"`
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	tagFieldMapping := bleve.NewKeywordFieldMapping()
	tagFieldMapping.Store = true
	tagFieldMapping.IncludeInAll = false
	docMapping.AddFieldMappingsAt("tag", tagFieldMapping)

	pathFieldMapping := bleve.NewTextFieldMapping()
	pathFieldMapping.Store = true
	pathFieldMapping.IncludeInAll = true
	docMapping.AddFieldMappingsAt("path", pathFieldMapping)

	// Bytes stay in the FindingIndex; bleve only needs the terms
	for _, field := range []string{"capture", "context"} {
		fm := bleve.NewTextFieldMapping()
		fm.Store = false
		fm.IncludeInAll = true
		docMapping.AddFieldMappingsAt(field, fm)
	}

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

// IndexEntries adds or updates findings in one batch.
func (ci *ContextIndex) IndexEntries(entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ci.mu.Lock()
	defer ci.mu.Unlock()

	batch := ci.index.NewBatch()
	for _, e := range entries {
		doc := bleveDocument{
			Tag:     e.Record.PatternTag,
			Path:    e.RelativePath,
			Capture: string(e.Record.Capture),
			Context: string(e.Record.Context),
		}
		if err := batch.Index(e.Record.ID, doc); err != nil {
			return fmt.Errorf("indexing finding %s: %w", e.Record.ID, err)
		}
	}
	if err := ci.index.Batch(batch); err != nil {
		return fmt.Errorf("applying index batch: %w", err)
	}
	return nil
}

// RemoveEntries deletes findings by id.
func (ci *ContextIndex) RemoveEntries(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	ci.mu.Lock()
	defer ci.mu.Unlock()

	batch := ci.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := ci.index.Batch(batch); err != nil {
		return fmt.Errorf("removing findings from index: %w", err)
	}
	return nil
}

// ContextSearchOptions configures a search.
type ContextSearchOptions struct {
	Query      string
	Tag        string // exact pattern tag
	PathGlob   string // doublestar glob on the relative path
	MaxResults int
}

// ContextHit is one search hit.
type ContextHit struct {
	ID    string
	Path  string
	Tag   string
	Score float64
}

// Search runs a full-text query over captures, contexts and paths.
// Query format:
//   - Plain text: match query (word-level matching)
//   - "quoted text": phrase query (exact phrase match)
//   - /regex/: regexp query on indexed terms
func (ci *ContextIndex) Search(options ContextSearchOptions) ([]ContextHit, int, error) {
	if options.MaxResults <= 0 {
		options.MaxResults = 50
	}
	glob := strings.ReplaceAll(options.PathGlob, "\\", "/")
	if glob != "" && !doublestar.ValidatePattern(glob) {
		return nil, 0, fmt.Errorf("invalid glob pattern: %s", glob)
	}
	if strings.TrimSpace(options.Query) == "" {
		return nil, 0, fmt.Errorf("empty query")
	}

	bleveQuery := buildQuery(options.Query)
	if options.Tag != "" {
		tagQuery := bleve.NewTermQuery(options.Tag)
		tagQuery.SetField("tag")
		bleveQuery = bleve.NewConjunctionQuery(bleveQuery, tagQuery)
	}

	searchRequest := bleve.NewSearchRequest(bleveQuery)
	// Over-fetch because the glob filter runs after the search
	searchRequest.Size = options.MaxResults * 5
	searchRequest.Fields = []string{"path", "tag"}

	ci.mu.RLock()
	searchResults, err := ci.index.Search(searchRequest)
	ci.mu.RUnlock()
	if err != nil {
		return nil, 0, fmt.Errorf("searching index: %w", err)
	}

	var hits []ContextHit
	total := 0
	for _, hit := range searchResults.Hits {
		path, _ := hit.Fields["path"].(string)
		tag, _ := hit.Fields["tag"].(string)

		if glob != "" {
			if matched, _ := doublestar.Match(glob, path); !matched {
				continue
			}
		}
		total++
		if len(hits) < options.MaxResults {
			hits = append(hits, ContextHit{ID: hit.ID, Path: path, Tag: tag, Score: hit.Score})
		}
	}
	if glob == "" && int(searchResults.Total) > total {
		total = int(searchResults.Total)
	}
	return hits, total, nil
}

// buildQuery parses the query string into a Bleve query.
func buildQuery(queryString string) query.Query {
	queryString = strings.TrimSpace(queryString)

	if strings.HasPrefix(queryString, "/") && strings.HasSuffix(queryString, "/") && len(queryString) > 2 {
		return bleve.NewRegexpQuery(queryString[1 : len(queryString)-1])
	}

	if strings.HasPrefix(queryString, "\"") && strings.HasSuffix(queryString, "\"") && len(queryString) > 2 {
		return bleve.NewMatchPhraseQuery(queryString[1 : len(queryString)-1])
	}

	return bleve.NewMatchQuery(queryString)
}

// DocumentCount returns the number of documents in the Bleve index.
func (ci *ContextIndex) DocumentCount() uint64 {
	ci.mu.RLock()
	defer ci.mu.RUnlock()
	count, _ := ci.index.DocCount()
	return count
}

// Close closes the Bleve index.
func (ci *ContextIndex) Close() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()
	return ci.index.Close()
}

// Clear removes all documents and recreates the index.
func (ci *ContextIndex) Clear() error {
	ci.mu.Lock()
	defer ci.mu.Unlock()

	if err := ci.index.Close(); err != nil {
		return fmt.Errorf("closing old index: %w", err)
	}
	newIndex, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("creating new index: %w", err)
	}
	ci.index = newIndex
	return nil
}
