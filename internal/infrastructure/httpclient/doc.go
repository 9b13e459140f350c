// Package httpclient provides the outbound HTTP client used to fetch form
// pages and post responses. It layers a resty client over a retryablehttp
// transport, with a token bucket limiter and a circuit breaker in front.
package httpclient
