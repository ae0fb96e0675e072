// Package service implements an HTTP API to query the state of an NRS engine.
//
// All endpoints answer GET requests with JSON:
//
//  /stats // scheduler, delivery and registry counters
//  /jobs // pending and recently finished jobs, with their phase and result
//  /nodes // registered nodes with identifiers and sync state
//  /links // registered links
package service
