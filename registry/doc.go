/*
Package registry maps entity types to the key templates used by single-table
backends such as the DynamoDB store.

An index map names the key attributes of an item and the template each one is
rendered from. Macros in braces are replaced with entity fields on write, or
with the lookup key on reads and deletes:

	registry.RegisterIndexMap[User](map[string]string{
	    "PK":     "USER#{ID}",
	    "SK":     "USER#{ID}",
	    "GSI1PK": "EMAIL#{Email}",
	})

PK and SK are mandatory. Registration normally happens during initialization;
the registry is safe for concurrent use afterwards.
*/
package registry
