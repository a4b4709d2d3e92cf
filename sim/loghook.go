package sim

import (
	"log"
)

// A LogHook is a hook that is responsible for recording information from the
// simulation
type LogHook interface {
	Hook
}

// LogHookBase provides the common logic for all LogHooks
type LogHookBase struct {
	*log.Logger
}

// A PrintLogHook writes one log line for every hook invocation it observes.
type PrintLogHook struct {
	LogHookBase
}

// NewPrintLogHook creates a PrintLogHook writing to the given logger.
func NewPrintLogHook(logger *log.Logger) *PrintLogHook {
	h := new(PrintLogHook)
	h.Logger = logger
	return h
}

// Func logs the hook position and item.
func (h *PrintLogHook) Func(ctx HookCtx) {
	name := ""
	if named, ok := ctx.Domain.(Named); ok {
		name = named.Name()
	}

	h.Printf("%s, %s, %+v", name, ctx.Pos.Name, ctx.Item)
}
