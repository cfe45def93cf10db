// Package hn is a small read-only client for the Hacker News Firebase API.
//
// Payloads are decoded once into core.Item; downstream code never sees raw
// JSON. Requests share an optional token-bucket rate limit.
package hn
