// Package serverrun starts the full server process: storage, the wired
// service graph, background loops, and the HTTP listener.
package serverrun
