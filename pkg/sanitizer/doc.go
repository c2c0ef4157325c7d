// Package sanitizer normalizes free-form input before validation and storage.
//
// All functions are idempotent. Invalid input yields an empty string or an
// empty slice rather than an error; validators decide whether empty is allowed.
//
// Normalization includes:
//   - Phone numbers: E.164 via libphonenumber, trying the configured regions in order
//   - Strings: collapse whitespace, trim leading and trailing spaces
//   - ID lists: trim, drop empties and duplicates, keep first-seen order
package sanitizer
