// Package acquire implements the ContentAcquirer port.
//
// A source reference is resolved by shape:
//   - http:// and https:// URLs are fetched, the raw page is kept as a
//     snapshot and the paragraph text is extracted
//   - paths ending in .pdf are read with github.com/ledongthuc/pdf
//   - any other path is read as plain text or markdown
package acquire
