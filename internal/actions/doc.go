// Package actions provides the behavior behind each pstack command.
//
// Each action corresponds to a pstack command (push, pop, new, undo, etc.)
// and drives one engine transaction, reporting to the user through Splog.
//
// Key patterns:
//   - Actions accept runtime.Context which provides Engine, Splog and Settings
//   - Actions are stateless; all stack state lives in the repository's refs
//   - A push conflict is handled according to the configured conflict policy
//
// Dependencies:
//   - engine: stack transactions and history
//   - output: rendering and logging
package actions
