// Package runtime provides the execution context for pstack commands.
//
// It encapsulates shared dependencies and configuration needed by actions,
// such as the engine instance, logger, settings and repository root path.
package runtime
