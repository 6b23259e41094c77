/*
Package logging is a thin leveled wrapper over the standard log package.

Messages are prefixed with their level tag ([TRACE], [DEBUG], [INFO], [WARN],
[ERROR], [FATAL]) and go to the standard logger's output. Trace is reserved for
per-path detail during discovery and update passes; absorbed per-file scan
failures are reported at error level.

The level comes from the environment on first use (a truthy DEBUG forces
debug, otherwise LOG_LEVEL) and can be replaced with SetLevel, which the CLI
does for --log-level.
*/
package logging
