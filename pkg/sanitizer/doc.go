// Package sanitizer normalizes visitor input from the widget forms before it
// is validated or forwarded to the automation backend.
//
// All functions are idempotent: applying them twice gives the same result as
// applying them once. Invalid input is never rejected here; it is normalized
// as far as possible and left for the validator to judge.
//
// Normalization includes:
//   - Names and free text: collapse whitespace, trim leading/trailing spaces
//   - Emails: trim and lowercase
//   - Amounts: strip currency symbols, spaces and thousands separators
//   - Unit numbers: trim, collapse whitespace, uppercase
package sanitizer
