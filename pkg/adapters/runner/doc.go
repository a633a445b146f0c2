// Package runner provides task executor implementations for the
// resolver.
//
// The factory creates executors based on configuration. Currently
// supported kinds:
//   - shell: runs a node's command payload via sh -c
//   - noop: records nothing and succeeds, for dry runs and testing
package runner
