package harness

import (
	"fmt"
	"log/slog"

	"github.com/roach88/overlay/internal/data"
	"github.com/roach88/overlay/internal/mapevent"
	"github.com/roach88/overlay/internal/session"
	"github.com/roach88/overlay/internal/state"
)

// Event command codes understood by ScriptInterpreter.
const (
	CodeEnd              = 0
	CodeShowText         = 101
	CodeTextLine         = 401
	CodeControlSwitches  = 121
	CodeControlVariables = 122
	CodeControlSelfSw    = 123
	CodePluginCommand    = 356
)

// Control-variable operations, parameter 2 of CodeControlVariables.
const (
	OpSet = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
)

// Control-variable operand types, parameter 3 of CodeControlVariables.
const (
	OperandConstant = iota
	OperandVariable
)

// ScriptInterpreter runs event lists one instruction per Update. A show-text
// command and the text lines after it count as one instruction. It covers
// the commands the farm content uses; any other code is skipped.
type ScriptInterpreter struct {
	session *session.Session
	trace   func(kind string, detail map[string]any)
	logger  *slog.Logger

	list    []mapevent.Instruction
	pc      int
	eventID int
}

// NewScriptInterpreter returns an idle interpreter. Bind must be called
// before the first Update. trace may be nil.
func NewScriptInterpreter(trace func(kind string, detail map[string]any), logger *slog.Logger) *ScriptInterpreter {
	if trace == nil {
		trace = func(string, map[string]any) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ScriptInterpreter{trace: trace, logger: logger}
}

// Bind attaches the session whose state the commands act on.
func (in *ScriptInterpreter) Bind(s *session.Session) {
	in.session = s
}

// Setup implements mapevent.Interpreter.
func (in *ScriptInterpreter) Setup(list []mapevent.Instruction, eventID int) {
	in.list = list
	in.pc = 0
	in.eventID = eventID
	in.trace(KindRun, map[string]any{"event": eventID})
}

// IsRunning implements mapevent.Interpreter.
func (in *ScriptInterpreter) IsRunning() bool {
	return in.list != nil
}

// Update implements mapevent.Interpreter.
func (in *ScriptInterpreter) Update() {
	if in.pc >= len(in.list) {
		in.Clear()
		return
	}
	cmd := in.list[in.pc]
	in.pc++
	if cmd.Code == CodeEnd {
		in.Clear()
		return
	}
	in.execute(cmd)
	if in.pc >= len(in.list) {
		in.Clear()
	}
}

// Clear implements mapevent.Interpreter.
func (in *ScriptInterpreter) Clear() {
	in.list = nil
	in.pc = 0
	in.eventID = 0
}

func (in *ScriptInterpreter) execute(cmd mapevent.Instruction) {
	s := in.session
	p := cmd.Parameters
	switch cmd.Code {
	case CodeShowText:
		var lines []string
		for in.pc < len(in.list) && in.list[in.pc].Code == CodeTextLine {
			if line, ok := param(in.list[in.pc].Parameters, 0).(data.String); ok {
				lines = append(lines, string(line))
			}
			in.pc++
		}
		s.ShowText(lines...)
	case CodeControlSwitches:
		on := intParam(p, 2) == 0
		for id := intParam(p, 0); id <= intParam(p, 1); id++ {
			s.State.Switches.Set(int(id), on)
		}
		s.Map.SetNeedRefresh()
	case CodeControlVariables:
		op := intParam(p, 2)
		var operand int64
		switch kind := intParam(p, 3); kind {
		case OperandConstant:
			operand = intParam(p, 4)
		case OperandVariable:
			operand = s.State.Variables.Int(int(intParam(p, 4)))
		default:
			in.logger.Warn("unsupported variable operand",
				"event_id", in.eventID,
				"operand_type", kind)
			return
		}
		for id := intParam(p, 0); id <= intParam(p, 1); id++ {
			v, err := operateVariable(s.State.Variables.Int(int(id)), op, operand)
			if err != nil {
				in.logger.Warn("control variables failed",
					"event_id", in.eventID,
					"variable_id", id,
					"error", err)
				return
			}
			s.State.Variables.SetInt(int(id), v)
		}
		s.Map.SetNeedRefresh()
	case CodeControlSelfSw:
		ch, _ := param(p, 0).(data.String)
		key := state.SelfSwitchKey{MapID: s.Map.ID(), EventID: in.eventID, Channel: state.Channel(ch)}
		if !key.Channel.Valid() {
			in.logger.Warn("invalid self switch channel",
				"event_id", in.eventID,
				"channel", string(ch))
			return
		}
		s.State.SelfSwitches.Set(key, intParam(p, 1) == 0)
	case CodePluginCommand:
		src, _ := param(p, 0).(data.String)
		in.trace(KindPlugin, map[string]any{"command": string(src)})
		if err := s.Plugins.Execute(string(src)); err != nil {
			in.trace(KindPluginErr, map[string]any{"command": string(src), "error": err.Error()})
		}
	default:
		in.logger.Debug("skipping event command",
			"event_id", in.eventID,
			"code", cmd.Code)
	}
}

// operateVariable applies a control-variable operation to current.
func operateVariable(current int64, op int64, operand int64) (int64, error) {
	switch op {
	case OpSet:
		return operand, nil
	case OpAdd:
		return current + operand, nil
	case OpSub:
		return current - operand, nil
	case OpMul:
		return current * operand, nil
	case OpDiv, OpMod:
		if operand == 0 {
			return current, fmt.Errorf("division by zero")
		}
		if op == OpDiv {
			return current / operand, nil
		}
		return current % operand, nil
	}
	return current, fmt.Errorf("unknown operation %d", op)
}

func param(p data.List, i int) data.Value {
	if i < 0 || i >= len(p) {
		return data.Null{}
	}
	return p[i]
}

func intParam(p data.List, i int) int64 {
	n, _ := param(p, i).(data.Int)
	return int64(n)
}

var _ mapevent.Interpreter = (*ScriptInterpreter)(nil)
