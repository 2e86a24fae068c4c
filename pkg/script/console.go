package script

import (
	"strings"

	"github.com/dop251/goja"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// consoleAPI routes console.log, console.warn and console.error to the
// driver's logger.
type consoleAPI struct {
	log *zap.Logger
}

func (c *consoleAPI) register(vm *goja.Runtime) {
	console := vm.NewObject()
	console.Set("log", c.write(zap.InfoLevel))
	console.Set("info", c.write(zap.InfoLevel))
	console.Set("warn", c.write(zap.WarnLevel))
	console.Set("error", c.write(zap.ErrorLevel))
	vm.Set("console", console)
}

func (c *consoleAPI) write(level zapcore.Level) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if ce := c.log.Check(level, formatArgs(call.Arguments)); ce != nil {
			ce.Write(zap.String("source", "script"))
		}
		return goja.Undefined()
	}
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
