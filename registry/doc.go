/*
Package registry maps driver names to service factories.

Driver packages register themselves in init, the way database/sql drivers do,
so a program only links the backends it imports:

	import _ "github.com/suparena/storagekit/datastore/azuretable"

	factory, err := registry.TableDriver("azuretable")
	service, err := factory(ctx, acct)

Registering the same name twice panics. The registry is safe for concurrent
use but should be populated during initialization.
*/
package registry
