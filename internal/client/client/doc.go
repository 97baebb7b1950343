// Package client is the CLI's transport to the spendkeeper HTTP API.
//
// HTTPClient carries the bearer token of the active session and decodes the
// JSON bodies defined in package dto. Failures surface as sentinel errors
// matched with errors.Is:
//
//   - ErrUnavailable: the server could not be reached or is overloaded.
//   - ErrUnauthorized: the token is missing, invalid or expired.
//   - ErrRemote: any other error response, with details in *RemoteError.
package client
