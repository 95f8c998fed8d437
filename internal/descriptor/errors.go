package descriptor

import "errors"

var (
	// ErrToolNotFound is returned when a tool name is not in the store.
	ErrToolNotFound = errors.New("descriptor: tool not found")

	// ErrNoDescriptors is returned when the descriptor directory contains
	// no loadable tool files.
	ErrNoDescriptors = errors.New("descriptor: no tool descriptors found")

	// ErrDuplicateTool is returned when two descriptor files declare the
	// same tool name.
	ErrDuplicateTool = errors.New("descriptor: duplicate tool name")
)
