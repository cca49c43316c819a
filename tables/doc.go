/*
Package tables runs entity operations against key/value tables.

A Tables helper resolves table names through a handle.Cache and never creates
a table implicitly; naming a missing table fails with a ResourceNotFoundError.
Use CreateTable to provision one.

	t := tables.New(service, storagemodels.WithLogger(logger))
	if _, err := t.CreateTable(ctx, "Orders"); err != nil {
		return err
	}
	status, err := t.Insert(ctx, "Orders", &Order{TableEntity: storagemodels.NewTableEntity("P1", "R1"), Amount: 10})
	order, err := tables.RetrieveEntity[Order](ctx, t, "Orders", "P1", "R1")

Write operations return the backend status code. A non-success status is also
returned as a RemoteFailureError carrying that code.

The package-level functions (InsertEntity, GetEntity, ...) take an already
resolved datastore.Table.
*/
package tables
