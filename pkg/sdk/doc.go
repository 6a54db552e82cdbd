// Package sdk embeds the estemplate renderer and template store in a Go
// program, without the HTTP server.
//
// A client always renders from a schema catalog. Publishing needs a store
// (Redis, Valkey, a SQLite file or Postgres); without one the publish calls
// fail with ErrStoreDisabled.
//
//	client, _ := sdk.New(ctx,
//	    sdk.WithSchemaPaths("schemas"),
//	    sdk.WithRedis("localhost:6379", ""),
//	)
//	defer client.Close()
//
//	tpl, _ := client.Template(ctx, "event", "logs", "v1-0-0")
//	rec, _ := client.Publish(ctx, "event", "logs", "v1-0-0")
//	fmt.Println(rec.Name, rec.Checksum)
package sdk
