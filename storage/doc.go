// Package storage keeps the static and media files of a portfolio application
// in a MinIO or S3 bucket.
//
// One bucket holds both locations:
//
//	portfolio/static/...
//	portfolio/media/avatars/...
//
// Objects are publicly readable, so URL builds plain links without signatures.
package storage
