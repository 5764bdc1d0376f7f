// Package auth implements accounts, roles, and the token lifecycle for the
// assessment platform.
//
// The package owns four concerns:
//
//   - Users and credentials: registration, partial profile updates, and
//     Argon2id password hashing. Password hashes live in a separate
//     credentials table and never travel on the User struct.
//
//   - Roles and permissions: a role is ten boolean capability flags; the
//     resolver projects those flags into a canonical, ordered permission
//     list that is embedded in access tokens.
//
//   - Tokens: HS256 JWTs via Issuer. Access tokens carry the user id, role
//     id, and resolved permissions; refresh tokens carry only the user id.
//     Each kind is signed with its own secret.
//
//   - The login and refresh sagas in Service, which compose the above and
//     translate failures into API-facing errors. Login deliberately returns
//     the same error for an unknown email and a wrong password.
//
// Repositories are defined here as interfaces with SQLite implementations,
// following the pattern used across the codebase.
package auth
