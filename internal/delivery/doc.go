// Package delivery is the HTTP client for the external transactional mail
// service. Sends are retried with exponential backoff
// (RetryDelay * 2^(attempt-1)); each attempt is bounded by Timeout and logged.
package delivery
