// Package task runs background jobs on a fixed set of workers and keeps
// a status record for every submitted job. Generation runs submitted
// asynchronously over HTTP execute here.
package task
