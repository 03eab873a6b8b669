package local

import (
	"encoding/json"
	"strings"

	"github.com/dop251/goja"
)

// consoleBuffer accumulates console output up to a byte limit. All console
// levels write to the same buffer: the execution contract exposes a single
// stdout stream.
type consoleBuffer struct {
	b         strings.Builder
	limit     int
	truncated bool
}

func newConsoleBuffer(limit int) *consoleBuffer {
	return &consoleBuffer{limit: limit}
}

// object builds the console global for the given engine.
func (c *consoleBuffer) object(vm *goja.Runtime) *goja.Object {
	obj := vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		_ = obj.Set(level, c.logFunc())
	}
	return obj
}

func (c *consoleBuffer) logFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, formatValue(arg))
		}
		c.writeLine(strings.Join(parts, " "))
		return goja.Undefined()
	}
}

func (c *consoleBuffer) writeLine(line string) {
	if c.truncated {
		return
	}
	if c.b.Len()+len(line)+1 > c.limit {
		c.truncated = true
		c.b.WriteString("[output truncated]\n")
		return
	}
	c.b.WriteString(line)
	c.b.WriteByte('\n')
}

func (c *consoleBuffer) String() string {
	return c.b.String()
}

// formatValue renders a console argument: objects and arrays as JSON,
// everything else through the engine's string conversion.
func formatValue(v goja.Value) string {
	if v == nil {
		return "undefined"
	}
	if obj, ok := v.(*goja.Object); ok {
		if data, err := json.Marshal(obj.Export()); err == nil {
			return string(data)
		}
	}
	return v.String()
}
