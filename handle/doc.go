/*
Package handle caches resolved remote resource references and provisions them.

Cache maps a resource name to a reference minted by a driver. A miss probes
the backend, runs the Creator when the resource exists or creation was
requested, and stores the result:

	cache := handle.NewCache(errors.KindTable, service.Table, handle.NewCreator(opts), opts.Observer)
	table, ok, err := cache.GetOrCreate(ctx, "Orders", false)

Creator wraps a driver's create-if-not-exists call. A 409 "being deleted"
conflict is retried on a fixed interval under a storagemodels.RetryPolicy;
anything else is reported as a ResourceUnavailableError.

Both types are safe for concurrent use. Two callers resolving the same new name
at once may both call the backend create; the first reference stored wins.
*/
package handle
