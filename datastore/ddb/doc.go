/*
Package ddb provides a DynamoDB implementation of the DataStore interface.

A DynamodbDataStore stores one entity type in a single table shared with other
types. Each item is addressed by PK and SK rendered from the type's index map
and is tagged with an EntityType attribute so RetrieveAll can scan for its own
items only.

Macro Expansion:
Templates use macros in braces. On Save they are filled from entity
attributes; on HasKey, Retrieve and Delete every macro of PK and SK is
replaced with the lookup key:

	registry.RegisterIndexMap[User](map[string]string{
	    "PK":     "USER#{ID}",  // Becomes "USER#123"
	    "SK":     "USER#{ID}",
	    "GSI1PK": "{Email}",    // Written from the entity only
	})

	store, err := ddb.NewDynamodbDataStore[string, User](ctx, key, secret, region, table,
	    ddb.WithScanOptions(storagemodels.WithPageSize(50)),
	)

RetrieveAll pages through the table and retries throttling and internal
errors with a linear backoff, see storagemodels.ScanOptions.
*/
package ddb
