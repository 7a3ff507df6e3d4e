package common

// AuthorizationHeaderName is the HTTP header carrying the bearer session
// token on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// SessionCookieName is the cookie carrying the session token for
// browser-originated requests.
const SessionCookieName = "session_id"
