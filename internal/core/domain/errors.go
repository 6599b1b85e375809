// Package domain holds the simulation's core types: tasks, nodes, lifecycle
// events and the error taxonomy shared by the engine and its adapters.
package domain

import "errors"

var (
	// ErrTaskTerminal is returned when mutating a task whose status is final.
	ErrTaskTerminal = errors.New("task already in terminal status")

	// ErrNoOperationalNode means a device found no reachable target. The
	// device counts the task as failed and does not retry.
	ErrNoOperationalNode = errors.New("no operational node reachable")

	// ErrNodeDown is returned by a failed node rejecting a receive.
	ErrNodeDown = errors.New("node is not operational")

	// ErrAlreadyRunning / ErrNotRunning report start/stop misuse.
	ErrAlreadyRunning = errors.New("simulation already running")
	ErrNotRunning     = errors.New("no simulation running")

	// ErrRunning is returned by configuration changes attempted mid-run.
	ErrRunning = errors.New("cannot reconfigure while simulation is running")

	ErrUnknownDevice = errors.New("unknown device")
	ErrUnknownPolicy = errors.New("unknown routing policy")
)
