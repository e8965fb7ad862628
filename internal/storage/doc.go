// Package storage writes generated outputs to the local disk or an S3 bucket
// and records each write in the artifact history.
package storage
