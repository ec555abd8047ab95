// Package auth resolves the caller identity for mutating operations.
//
// Identity travels as a bearer token attached to a context via WithToken.
// A Provider turns that token into an Identity or reports that the caller
// is anonymous. The JWT provider verifies HMAC-signed tokens minted by
// IssueToken; the Static provider maps fixed tokens to identities and is
// used in tests and single-user deployments.
package auth
