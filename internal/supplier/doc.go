// Package supplier fetches live sustainability metrics from supplier URLs.
//
// Every fetch is a single GET bounded by its own timeout. Failures are
// reported with one of three sentinel errors so callers can contain them per
// invoice:
//   - ErrRequestFailed for transport errors and timeouts
//   - ErrUnexpectedStatus for any non-200 reply
//   - ErrMalformedResponse for bodies that are not a JSON object
//
// Fetchers share one process-wide connection pool (see SharedClient) which
// must be released with Shutdown before the process exits.
package supplier
