// Package async provides utilities for parallel task execution with
// error collection.
//
// The [RunParallel] function executes tasks concurrently, optionally bounded,
// and returns every error once all tasks have finished. The clear engine uses
// it for sibling subtrees and for the document deletes inside a container.
package async
