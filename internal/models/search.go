package models

// SearchResults is the pagination envelope returned by page-oriented
// queries. TotalSize counts every matching row regardless of the
// requested page.
type SearchResults[T any] struct {
	TotalSize int `json:"totalSize"`
	Models    []T `json:"models"`
}
