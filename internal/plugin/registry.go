package plugin

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/pkg/errors"
)

// ErrUnknownCommand is returned by Execute for names nothing registered.
var ErrUnknownCommand = errors.New("unknown plugin command")

// Args are the arguments of a dispatched call, already checked against the
// registered kinds.
type Args []Arg

// Int returns argument i as an integer.
func (a Args) Int(i int) int64 {
	return a[i].Int
}

// String returns argument i as a string.
func (a Args) String(i int) string {
	return a[i].Str
}

// Handler runs a command.
type Handler func(args Args) error

type command struct {
	kinds   []ArgKind
	handler Handler
}

// Registry maps command names to typed handlers.
type Registry struct {
	commands map[string]command
	logger   *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{commands: make(map[string]command), logger: logger}
}

// Register adds a command taking arguments of the given kinds.
func (r *Registry) Register(name string, kinds []ArgKind, handler Handler) error {
	if _, ok := r.commands[name]; ok {
		return errors.Errorf("plugin command %q already registered", name)
	}
	if handler == nil {
		return errors.Errorf("plugin command %q: nil handler", name)
	}
	r.commands[name] = command{kinds: slices.Clone(kinds), handler: handler}
	return nil
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Execute parses src and runs the matching handler. An integer is accepted
// where a string is expected and passed on in decimal form.
func (r *Registry) Execute(src string) error {
	call, err := Parse(src)
	if err != nil {
		return errors.Wrap(err, "parse plugin command")
	}
	return r.Dispatch(call)
}

// Dispatch runs an already parsed call.
func (r *Registry) Dispatch(call Call) error {
	cmd, ok := r.commands[call.Name]
	if !ok {
		r.logger.Warn("unknown plugin command", "command", call.Name)
		return errors.Wrapf(ErrUnknownCommand, "%s", call.Name)
	}
	if len(call.Args) != len(cmd.kinds) {
		return errors.Errorf("%s: want %d arguments, got %d", call.Name, len(cmd.kinds), len(call.Args))
	}

	args := make(Args, len(call.Args))
	for i, arg := range call.Args {
		want := cmd.kinds[i]
		switch {
		case arg.Kind == want:
			args[i] = arg
		case want == String && arg.Kind == Int:
			args[i] = Arg{Kind: String, Str: strconv.FormatInt(arg.Int, 10)}
		default:
			return errors.Errorf("%s: argument %d: want %s, got %s", call.Name, i+1, want, arg)
		}
	}

	r.logger.Debug("plugin command", "command", call.String())
	if err := cmd.handler(args); err != nil {
		return errors.Wrapf(err, "%s", call.Name)
	}
	return nil
}
