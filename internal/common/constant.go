package common

// AuthorizationHeaderName is the HTTP header carrying the session credential
// as "Bearer <token>".
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the session credential in the Authorization header.
const BearerPrefix = "Bearer "

// SessionTokenValidityDays is the fixed lifetime of a session credential.
const SessionTokenValidityDays = 30
