package common

// AuthorizationHeaderName carries the bearer token on HTTP requests.
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the auth scheme prefix expected in AuthorizationHeaderName.
const BearerScheme = "Bearer"
