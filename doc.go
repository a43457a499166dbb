// Package auth implements registration and authorization for a medical
// practice API: practice sign-up with a pending master user, single-use
// registration tokens delivered by email, conversion of pending users into
// active accounts, and a two-tier request check (session authentication,
// then permission enforcement).
//
// Registration lifecycle:
//   - RegisterPracticeHandler creates the practice, its pending master user,
//     and a registration token in one transaction, then queues the signup
//     email. Pending users hold no password and cannot authenticate.
//   - ConvertPendingUserHandler redeems the token: it sets the password,
//     promotes the user to active, and burns the token atomically so a token
//     converts exactly one user exactly once.
//
// Request authorization:
//   - Auther turns credentials or bearer tokens into identities, re-reading
//     the user row on every call so revoked accounts fail closed.
//   - PermissionAuthorizer layers permission checks on top, with the "*"
//     grant satisfying any requirement. RouteGuard packages both as router
//     middleware.
//
// Activity sinks:
//   - ActivitySink is a light-weight audit emitter used by the authenticator,
//     the authorizer, and the registration handlers. Sinks run best-effort
//     (errors are logged) so you can forward to a database or queue without
//     blocking authentication.
package auth
