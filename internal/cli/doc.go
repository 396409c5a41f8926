// Package cli parses command-line arguments for the radial and radiald
// commands, validates them, and builds the process logger. Usage errors come
// back as *ExitError carrying the exit code.
package cli
