// Package config manages pstack configuration.
//
// Settings are read from pstack.json in the repository's git directory,
// overridden by PSTACK_* environment variables and by command-line flags.
package config
