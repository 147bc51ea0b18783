package service

import "errors"

var (
	ErrInvalidDataProvided   = errors.New("invalid data provided")
	ErrVersionIsNotSpecified = errors.New("app version is not specified")

	// server
	ErrDeviceNotRegistered = errors.New("device is not registered")
	ErrDeviceMismatch      = errors.New("action belongs to a different device")
	ErrPlaceholderMismatch = errors.New("placeholder does not match the proof payload")
	ErrProofExpired        = errors.New("offline proof has expired")
	ErrUnknownResource     = errors.New("referenced resource does not exist")

	// client
	ErrUnknownDependency   = errors.New("dependency refers to an unknown action")
	ErrDependencyCycle     = errors.New("dependencies form a cycle")
	ErrInvalidTransition   = errors.New("invalid action status transition")
	ErrActionNotTerminal   = errors.New("action is not in a terminal state")
	ErrRetentionNotElapsed = errors.New("action is younger than the retention window")
	ErrActionHasDependents = errors.New("action is still needed by an unsynced dependent")
	ErrActionNotFailed     = errors.New("only failed actions can be retried")
	ErrDeviceNotSetUp      = errors.New("device is not registered locally")
	ErrOffline             = errors.New("device is offline")
)
