// Package errors provides the classified error primitives shared by the
// page compiler.
//
// Domain packages define their own typed errors (scan failures, duplicate
// routes, compile errors, missing exports, route misses) and report their
// category through the Categorized interface. Infrastructure code builds
// ClassifiedError values with the fluent builder:
//
//	err := errors.NewError(errors.CategoryConfig, "invalid locale list").
//		WithContext("locales", cfg.Locales).
//		Build()
//
// The CLI and HTTP adapters turn either kind into exit codes, status codes
// and log records.
package errors
