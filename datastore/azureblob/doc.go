/*
Package azureblob implements datastore.BlobService on Azure Blob Storage.

Importing the package registers the "azureblob" blob driver. The account may
authenticate with a shared key, a SAS token, or the azidentity default
credential chain. UseDevelopmentStorage=true targets Azurite.

Blobs are uploaded as block blobs. A 409 ContainerBeingDeleted on create is
reported as the conflict the handle creator retries.
*/
package azureblob
