// Package script evaluates user supplied Lua expressions as value functions for virtual
// sources.
package script

import (
	"errors"
	"fmt"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/zeusync/dataobjects/internal/core/observability/log"
)

const valueFunc = "value"

var (
	ErrEmpty      = errors.New("empty expression")
	ErrCompile    = errors.New("compile expression")
	ErrNotNumeric = errors.New("expression did not return a number")
)

// Func wraps one Lua VM holding a compiled value(i) function. A Func is used from a single
// goroutine.
type Func struct {
	vm     *lua.LState
	fn     lua.LValue
	source string
	log    log.Log
}

// Compile builds value(i) from expr, an expression over the sample index i such as
// "math.sin(i / 10) * 100". The standard Lua libraries are available.
func Compile(expr string, logger log.Log) (*Func, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, ErrEmpty
	}
	if logger == nil {
		logger = log.NewNop()
	}

	vm := lua.NewState()
	chunk := fmt.Sprintf("function %s(i) return %s end", valueFunc, expr)
	if err := vm.DoString(chunk); err != nil {
		vm.Close()
		return nil, fmt.Errorf("%w %q: %v", ErrCompile, expr, err)
	}

	return &Func{
		vm:     vm,
		fn:     vm.GetGlobal(valueFunc),
		source: expr,
		log:    logger.With(log.String("expression", expr)),
	}, nil
}

// Eval calls value(i).
func (f *Func) Eval(i uint64) (float64, error) {
	if err := f.vm.CallByParam(lua.P{
		Fn:      f.fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(i)); err != nil {
		return 0, err
	}

	ret := f.vm.Get(-1)
	f.vm.Pop(1)

	switch v := ret.(type) {
	case lua.LNumber:
		return float64(v), nil
	case lua.LBool:
		if v {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("%w: got %s", ErrNotNumeric, ret.Type())
	}
}

// Value adapts Eval to a generator function. Evaluation errors are logged and yield 0.
func (f *Func) Value(i uint64) float64 {
	v, err := f.Eval(i)
	if err != nil {
		f.log.Error("Expression evaluation failed", log.Uint64("index", i), log.Error(err))
		return 0
	}
	return v
}

func (f *Func) Source() string { return f.source }

func (f *Func) Close() {
	f.vm.Close()
}
