// Package daemonrun hosts the agent process: it sets up logging, takes the
// single-instance lock, resolves the session credential, validates it, and
// hands control to the move orchestrator until a signal or a stop condition.
package daemonrun
