// Package blobs stores and fetches blob content in named containers.
//
// A container is created the first time it is named and its anonymous access
// level is set from storagemodels.WithPublicAccess (container-level read by
// default). BlobURL reports a missing blob as a ResourceNotFoundError.
package blobs
