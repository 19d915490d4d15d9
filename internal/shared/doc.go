// Package shared contains the repository-level error taxonomy shared by every
// repository adapter, without use-case specific logic.
//
// # Error Kinds
//
// Every repository failure is exactly one of:
//
//   - KindNetwork: transport failure or timeout (retryable)
//   - KindDecoding: malformed payload
//   - KindEncoding: request could not be serialized
//   - KindNotFound: resource not found (HTTP 404)
//   - KindUnauthorized: credentials missing or rejected (HTTP 401/403)
//   - KindServer: server-side failure (HTTP 5xx, retryable)
//   - KindUnknown: no structural match
//
// Each kind has a stable numeric code (1001-1006, 1099 for unknown) and a
// retry policy. IsRetryable is the single contract the presentation layer
// uses to decide whether to show a retry action.
//
// # Mapping
//
// MapError converts any caught error into a *RepositoryError. Classification
// is deterministic and runs in priority order:
//
//	Priority | Match                                   | Kind
//	---------|-----------------------------------------|----------------
//	1        | already a *RepositoryError              | unchanged
//	2        | context.Canceled                        | KindUnknown
//	3        | *StatusError                            | by status code
//	4        | json marshal errors                     | KindEncoding
//	5        | json syntax/type errors                 | KindDecoding
//	6        | deadline, net.Error, url/op/dns errors  | KindNetwork
//	7        | anything else                           | KindUnknown
//
// Adapters call MapError at their boundary so raw transport errors never escape:
//
//	resp, err := client.Do(ctx, req)
//	if err != nil {
//	    return nil, shared.MapError(err)
//	}
//
// # Checking Kinds
//
//	if shared.IsNotFound(err) {
//	    // creator does not exist
//	}
//	switch shared.KindOf(err) {
//	case shared.KindUnauthorized:
//	    // ask the user to sign in again
//	}
//
// Errors compare by kind, so errors.Is(err, shared.ErrNotFound) holds for any
// notFound error regardless of message or cause.
//
// # Error Message Style Guide
//
// - Use lowercase messages: "creator not found" not "Creator not found"
// - Avoid punctuation so messages compose when wrapped
// - Keep transport details (status codes, SQL) in Cause, not in Message
package shared
