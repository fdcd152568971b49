// Package query builds the joined, filtered and date-sectioned views over
// committed logs.
//
// List views show current display metadata, so LoadAll joins each log with
// the canonical record of its type from the registry rather than with the
// revision the log is pinned to.
package query
