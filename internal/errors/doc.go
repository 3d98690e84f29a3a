// Package errors provides the structured errors shared by the runtime, the
// host documents and the CLI.
//
// Every error carries a registry code. Codes are grouped by category:
//   - runtime (E100-E119): invalid children, refs, callbacks, styles
//   - config (E120-E129): inactive.json / inactive.yaml problems
//   - dom (E130-E139): host document failures
//   - build (E140-E149): WebAssembly build failures
//   - deploy (E150-E159): static hosting uploads
//
// # Usage
//
//	err := errors.New("E100").WithDetailf("cannot render %T", v)
//	if errors.Is(err, errors.New("E100")) { ... }
//
// Two errors with the same code match under errors.Is, so packages can
// export a sentinel per code.
//
// Format renders an error for the terminal and is not built for
// js/wasm.
package errors
