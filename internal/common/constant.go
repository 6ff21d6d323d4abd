package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the expected scheme prefix of the Authorization header value.
const BearerPrefix = "Bearer "

// MinSecretLength is the minimum accepted length, in bytes, of a JWT signing
// secret. Shorter secrets are rejected at startup and by `authctl secrets`.
const MinSecretLength = 32
