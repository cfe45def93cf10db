// Package retry runs operations with a bounded number of attempts and a
// pluggable delay between them.
//
// Three delay strategies are provided: Fixed (item metadata polling),
// Linear (webpage fetches) and Exponential (embedding and control-plane calls).
// Errors wrapped with Permanent stop the loop immediately.
package retry
