package model

// StorageUsage describes localStorage or sessionStorage usage in bytes.
type StorageUsage struct {
	TotalSize int64            `json:"totalSize"`
	ByDomain  map[string]int64 `json:"byDomain,omitempty"`
}

// IndexedDBUsage is the origin's IndexedDB size estimate.
type IndexedDBUsage struct {
	EstimatedSize int64    `json:"estimatedSize"`
	Databases     []string `json:"databases,omitempty"`
}

// ScanMetadata describes how and when a scan was acquired.
type ScanMetadata struct {
	// Timestamp is epoch milliseconds.
	Timestamp  int64  `json:"timestamp"`
	DurationMs int64  `json:"duration"`
	Version    string `json:"version"`
	URL        string `json:"url,omitempty"`
}

// RawScan is the normalized output of a scan source.
type RawScan struct {
	Cookies        []Cookie       `json:"cookies"`
	LocalStorage   StorageUsage   `json:"localStorage"`
	SessionStorage StorageUsage   `json:"sessionStorage"`
	IndexedDB      IndexedDBUsage `json:"indexedDB"`
	Metadata       ScanMetadata   `json:"metadata"`

	// ThirdPartyScripts are hosts of <script src> elements outside the page's site.
	ThirdPartyScripts []string `json:"thirdPartyScripts,omitempty"`
}

// TotalStorageBytes sums every storage mechanism of the scan.
func (r RawScan) TotalStorageBytes() int64 {
	return r.LocalStorage.TotalSize + r.SessionStorage.TotalSize + r.IndexedDB.EstimatedSize
}
