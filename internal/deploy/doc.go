// Package deploy uploads a build to S3-compatible static hosting.
//
// Every file of the build output becomes one object. Content types come
// from the file extension (.wasm is application/wasm). Files whose name
// carries a content hash (app.3f9a1c2e.wasm) are cached forever,
// index.html is never cached, and everything else uses deploy.cacheControl.
// index.html is uploaded last so that it never references an object that
// does not exist yet.
//
// # Usage
//
//	client, err := deploy.NewClient(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := deploy.New(cfg, client, deploy.Options{}).Deploy(ctx)
//
// Credentials come from the default AWS chain (environment, shared files,
// SSO, instance roles). The region is deploy.region, then the AWS
// configuration, then us-east-1.
package deploy
