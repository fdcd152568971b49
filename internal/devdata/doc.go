// Package devdata fills a journal with sample log types and random logs for
// local development, and clears it again.
package devdata
