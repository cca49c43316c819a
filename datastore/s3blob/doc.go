/*
Package s3blob implements datastore.BlobService on Amazon S3.

Importing the package registers the "s3blob" blob driver. Each container maps
to a bucket. Public access levels are applied as bucket policies: blob grants
anonymous s3:GetObject, container adds s3:ListBucket, and none removes the
policy. BlobURL returns a presigned GET URL valid for DefaultURLExpiry.

S3 answers OperationAborted while a bucket of the same name is being deleted;
the driver reports it as the ContainerBeingDeleted conflict.
*/
package s3blob
