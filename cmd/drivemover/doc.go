// Command drivemover moves finished files between folders on a 115 cloud
// drive account.
//
// `drivemover run` starts the agent. The remaining commands browse the drive
// (resolve, ls, scan), check the session, manage configuration, and send test
// notifications.
package main
