// Package services talks to the remote analysis, authentication and billing endpoints.
//
// [AnalysisClient] issues exactly one HTTP request per call and never retries. Every
// authenticated request carries the session token as a bearer credential through an
// [oauth2.Transport], and an X-Request-ID header that is also written to the log.
//
// # Outcomes
//
// Analysis and upgrade calls never return errors. Every path ends in a [models.Outcome]
// produced by [Classify]:
//   - 2xx with a decodable payload : success
//   - 2xx with an undecodable payload : server error
//   - 401 : auth rejected
//   - 403 : quota exceeded, carrying the service's detail or "Daily limit reached"
//   - any other status : server error, carrying the detail or a per-[Variant] default
//   - transport failure : network failure
//
// Fields missing from an analysis payload are filled with [models.Placeholder].
//
// # Authentication
//
// [AnalysisClient.Login] and [AnalysisClient.Register] exchange credentials for a
// [models.Session]. They return errors wrapping [shared.ErrAuthFailed] or [shared.ErrNetwork].
package services
