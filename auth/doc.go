// Package auth provides the session primitives of the chat service: claims,
// HS256 token signing and verification, session issuance, the identity
// extractor and the login endpoints.
//
// Sessions:
//   - The token is the session. The server keeps no session table, a token is
//     valid while its signature verifies and now is in [iat, exp).
//   - Visitors without a token get an anonymous session from the soft guard
//     (RouteAuthenticator.SessionRoute). The identity and the cookie are
//     produced in the same pass, the token is never decoded again.
//   - A present cookie always wins over the Authorization header, even when it
//     does not verify. Invalid tokens are rejected with 401, they are not
//     silently replaced.
//
// Handlers read the verified identity with GetIdentity or wrap themselves in
// RequireIdentity. Neither parses tokens.
package auth
