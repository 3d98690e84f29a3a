// Package build compiles inactive applications to WebAssembly.
//
// This package handles:
//   - GOOS=js GOARCH=wasm compilation of the app package
//   - Copying the toolchain's wasm_exec.js
//   - Copying the static directory
//   - Rendering index.html
//   - Build manifest generation
//
// # Usage
//
//	builder := build.New(cfg, build.Options{})
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Built in %s\n", result.Duration)
//	fmt.Printf("Wasm: %s (%d bytes gzipped)\n", result.Wasm, result.WasmGzipSize)
//
// # Output Structure
//
//	dist/
//	├── app.3f9a1c2e.wasm  # Application module (hashed with build.hash)
//	├── wasm_exec.js       # Go runtime support
//	├── index.html         # Entry point
//	├── ...                # Static files, copied as-is
//	└── manifest.json      # Asset manifest
//
// # Index template
//
// A static index.html, when present, replaces the built-in template. It is
// rendered with html/template and sees .Title, .Wasm, .WasmExec and
// .Inject.
package build
