package searchsvc

// IndexStats mirrors the index statistics payload. Fields the service
// omits decode to zero.
type IndexStats struct {
	DocumentCount   int64 `json:"documentCount"`
	StorageSize     int64 `json:"storageSize"`
	VectorIndexSize int64 `json:"vectorIndexSize"`
}

// Document is one search hit. The index schema is not known statically,
// so fields stay dynamic. Keys starting with "@" are service metadata.
type Document map[string]any

// SearchRequest is the docs/search POST body. The two request shapes the
// service accepts ({search, top} and {vectorQueries, select}) both
// serialize from this struct via omitempty.
type SearchRequest struct {
	Search        string        `json:"search,omitempty"`
	Top           int           `json:"top,omitempty"`
	VectorQueries []VectorQuery `json:"vectorQueries,omitempty"`
	Select        string        `json:"select,omitempty"`
}

// VectorQuery is one nearest-neighbor probe inside a SearchRequest.
type VectorQuery struct {
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Fields string `json:"fields"`
	K      int    `json:"k"`
}

// SearchPage is one page of search results.
type SearchPage struct {
	Count *int64     `json:"@odata.count"`
	Value []Document `json:"value"`
}

// TotalCount prefers the server-reported count and falls back to the
// number of returned documents.
func (p SearchPage) TotalCount() int64 {
	if p.Count != nil {
		return *p.Count
	}
	return int64(len(p.Value))
}

// IndexerStatus is the indexers/{name}/status payload. ExecutionHistory
// is ordered most-recent-first by the service.
type IndexerStatus struct {
	Name             string            `json:"name"`
	Status           string            `json:"status"`
	LastResult       *ExecutionResult  `json:"lastResult"`
	ExecutionHistory []ExecutionResult `json:"executionHistory"`
}

// ExecutionResult is a single indexer run.
type ExecutionResult struct {
	Status         string        `json:"status"`
	ItemsProcessed int64         `json:"itemsProcessed"`
	ItemsFailed    int64         `json:"itemsFailed"`
	Errors         []ItemError   `json:"errors"`
	Warnings       []ItemWarning `json:"warnings"`
}

// ItemError is one per-document ingestion error. The service names the
// message field "errorMessage", unlike warnings.
type ItemError struct {
	Message string `json:"errorMessage"`
	Key     string `json:"key"`
	Name    string `json:"name"`
}

// ItemWarning is one per-document ingestion warning.
type ItemWarning struct {
	Message string `json:"message"`
	Key     string `json:"key"`
	Name    string `json:"name"`
	Details string `json:"details"`
}
