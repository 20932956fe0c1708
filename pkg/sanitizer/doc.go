// Package sanitizer normalizes user supplied input before validation and storage.
//
// All functions are idempotent and never fail: invalid input yields an empty
// or default value rather than an error.
//
// Normalization includes:
//   - Single-line strings: collapse whitespace, trim leading/trailing spaces
//   - Free text: trim, drop control characters, keep line breaks
//   - Emails: trim, lowercase the domain part
//   - Paths: default to "/", strip query and fragment
//   - Referrers: reduce to a hostname
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
