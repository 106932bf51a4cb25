// Package accounts provides a minimal user-account service core: registration,
// credential verification, session token issuance and revocation, email
// verification gating, and avatar management.
//
// Credential and session lifecycle:
//   - Accounts carry a bcrypt password digest, an email-verification state, and
//     the currently active session token. The Manager orchestrates signup,
//     verification, login, logout, and avatar updates against the Accounts
//     repository, and is constructed with explicit Config plus injected
//     capabilities (hasher, token service, mailer, avatar store) so every
//     collaborator can be swapped with an in-memory fake in tests.
//   - Session tokens are signed JWTs with a fixed TTL. Logout clears the
//     persisted token; the Gate rejects a cryptographically valid token once it
//     no longer matches the stored one, giving server-side revocation.
//
// Verification and avatar upload are optional capabilities: a Manager without a
// Mailer skips the verification gate entirely, and one without an AvatarStore
// rejects avatar updates. The HTTP controller is thin glue that binds payloads,
// runs validation, and serializes the rich errors the core returns.
package accounts
