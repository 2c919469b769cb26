// Package internal contains helper utilities that are intentionally private to
// goRefresh: token digest hashing for the replay cache and secure OTP generation.
//
// # What this package must NOT do
//
//   - Export types that appear in the public goRefresh API.
//   - Be imported by any package outside the goRefresh module.
//   - Access Redis or any I/O beyond crypto/rand.
package internal
