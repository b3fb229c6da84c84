/*
Package storagemodels defines option types shared by the storage backends.

ScanOptions configures a full-collection walk such as the DynamoDB
RetrieveAll:

	store, _ := ddb.NewDynamodbDataStore[string, User](client, table,
	    ddb.WithScanOptions(
	        storagemodels.WithPageSize(25),
	        storagemodels.WithMaxRetries(5),
	        storagemodels.WithProgressHandler(func(p storagemodels.ScanProgress) {
	            slog.Info("scan", "items", p.ItemsProcessed, "pages", p.PagesProcessed)
	        }),
	    ))
*/
package storagemodels
