/*
Package errors provides semantic error types for the entityevents library.

The package defines common error scenarios with specific types that can be
checked using the standard errors.Is() function or the provided helper functions.

Common Errors:

	var (
	    ErrNotFound         = errors.New("entity not found")
	    ErrInvalidInput     = errors.New("invalid input")
	    ErrNoIndexMap       = errors.New("no index map found for type")
	    ErrStoreClosed      = errors.New("datastore is closed")
	    ErrEntityDefinition = errors.New("invalid entity definition")
	)

Entity definition errors (EntityDefinitionError, MultipleIDPropertiesError,
NoIDPropertyError) are produced while resolving repository metadata. They all
match ErrEntityDefinition and should be treated as fatal configuration errors:

	md, err := metadata.For[User]()
	if errors.IsEntityDefinitionError(err) {
	    log.Fatalf("user repository misconfigured: %v", err)
	}

Usage:

	user, err := store.Retrieve(ctx, "123")
	if err != nil {
	    if errors.IsNotFound(err) {
	        return nil, fmt.Errorf("user %s does not exist", "123")
	    }
	    return nil, err
	}
*/
package errors
