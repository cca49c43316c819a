/*
Package azuretable implements datastore.TableService on Azure Table Storage.

Importing the package registers the "azuretable" table driver. Entities are
sent as their JSON form; the embedded storagemodels.TableEntity supplies the
PartitionKey and RowKey properties. Integers travel as JSON numbers and are
stored as Edm.Int32 or Edm.Double by the service.

Merge and Replace use If-Match: * so they fail with 404 when the entity does
not exist. A 409 TableBeingDeleted on create is reported as the conflict the
handle creator retries.
*/
package azuretable
