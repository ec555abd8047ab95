// Package client contains Cobra CLI commands that talk to a running
// inklet server over its HTTP API.
package client
