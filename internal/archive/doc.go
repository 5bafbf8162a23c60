// Package archive copies documents to S3-compatible object storage before
// they are deleted.
//
// Objects are written to <prefix>/<account>/<database>/<container>/<id>.json
// with path-style addressing, so any S3-compatible endpoint works.
package archive
