// Package sim provides an in-memory channel provider for tests and the
// interactive tools. Variables are declared up front with a native
// type, value and metadata; channels connect asynchronously after an
// optional delay, serve form-dependent reads, accept validated writes,
// and fan monitor updates out to subscriptions.
//
// Unknown names never connect, mirroring a search that finds no server.
package sim
