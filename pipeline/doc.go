// Package pipeline orchestrates document ingestion stage by stage.
//
// Text documents are segmented inline at ingestion; pdf and video documents
// are handed to queue workers. Every path ends in the knowledge extraction
// stage, which completes the document. Stages report monotonic progress onto
// the document and classify failures: content errors fail the document
// immediately, transient errors are retried by the queue, and an exhausted
// attempt budget fails the document with its last error message.
package pipeline
