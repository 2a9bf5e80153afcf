// Package mover runs the agent's cycle state machine.
//
// Mappings are resolved to folder IDs once at startup (Resolving). Each cycle
// (Running) optionally checks the session, scans every active mapping, and
// moves eligible files one at a time with a fixed pause between moves. The
// orchestrator then sleeps (Sleeping) until the next cycle and stops on
// interruption, an expired session, or an authentication failure (Stopped).
package mover
