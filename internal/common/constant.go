package common

// AuthorizationHeaderName is the gRPC/HTTP metadata key used to carry the
// session token on outbound requests.
const AuthorizationHeaderName = "authorization"

// BearerPrefix prefixes the session token inside the authorization header.
const BearerPrefix = "Bearer "
