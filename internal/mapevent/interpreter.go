package mapevent

import "github.com/roach88/overlay/internal/data"

//go:generate mockgen -destination mock_interpreter_test.go -package $GOPACKAGE -write_package_comment=false github.com/roach88/overlay/internal/mapevent Interpreter

// Instruction is one command of a page's script.
type Instruction struct {
	Code       int
	Indent     int
	Parameters data.List
}

// Interpreter runs page scripts. The map only starts it, asks whether it is
// running, ticks it, and clears it on map change.
type Interpreter interface {
	// Setup begins executing list on behalf of eventID.
	Setup(list []Instruction, eventID int)
	IsRunning() bool
	Update()
	Clear()
}
