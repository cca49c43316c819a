/*
Package errors provides semantic error types for storagekit.

Every helper reports failures through one of these categories, checkable with
the standard errors.Is() function or the provided helper functions:

	var (
	    ErrInvalidArgument     = errors.New("invalid argument")
	    ErrInvalidFormat       = errors.New("invalid format")
	    ErrResourceNotFound    = errors.New("resource not found")
	    ErrResourceUnavailable = errors.New("resource unavailable")
	    ErrRemoteConflict      = errors.New("remote conflict")
	    ErrRemoteFailure       = errors.New("remote failure")
	)

Drivers report the "resource is being deleted" race as a RemoteConflictError
with status 409 and a kind-specific code; IsBeingDeleted recognises it. Every
other non-success backend status is a RemoteFailureError carrying the status
code verbatim.

Usage:

	status, err := tbl.Insert(ctx, "Orders", order)
	if err != nil {
	    if errors.IsNotFound(err) {
	        // the table does not exist
	    }
	    if errors.StatusCode(err) == http.StatusConflict {
	        // an entity with the same keys already exists
	    }
	    return err
	}
*/
package errors
