package model

// SearchResult is the body of a successful search response.
// Anagrams is never nil so it always encodes as a JSON array.
type SearchResult struct {
	Anagrams []string `json:"anagrams"`
}

// EmptySearchResult returns a result with no anagrams.
func EmptySearchResult() SearchResult {
	return SearchResult{Anagrams: []string{}}
}
