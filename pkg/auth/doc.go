// Package auth provides credential verification and access token handling.
//
// # Overview
//
// This package implements the credential core: email normalization, password
// policy enforcement, PBKDF2-HMAC-SHA256 hash verification, and HS256 access
// tokens. It also defines Identity, the authenticated user with a memoized
// per-module permission map.
//
// # Authentication Flow
//
// Verify credentials and mint a token:
//
//	identity, err := service.Authenticate(ctx, email, password)
//	if err != nil {
//		// classified error; the HTTP boundary answers a single 401
//	}
//	token, err := service.IssueToken(identity)
//
// Resolve a bearer token back to an identity:
//
//	identity, err := service.ValidateToken(ctx, token)
//
// Validation re-resolves the user by email, so a deactivated user's
// outstanding tokens stop working immediately.
//
// # Password Hashes
//
// Stored hashes use the format $pbkdf2-sha256$rounds$salt$key with an
// adapted base64 alphabet ("+" becomes ".", padding omitted). Hash
// creation always emits 29000 rounds with a 16 byte salt. Verification
// dispatches on the hash prefix; any other scheme fails.
//
// # Permissions
//
//	if identity.Can(rbac.ModuleSentencias, rbac.LevelEdit) {
//		// allowed
//	}
//
// The permission map folds grant rows with a max merge and is memoized
// per Identity instance.
//
// # Related Packages
//
//   - pkg/rbac: permission levels and grant resolution
//   - pkg/middleware: bearer token extraction and permission enforcement
package auth
