// Package contract guards core operations against programmer errors such as
// nil entity or component handles.
//
// The default policy is fail-fast: a violated precondition panics with a
// *Violation. A build that prefers resilience can switch to log-and-continue,
// in which case Require reports false and the caller returns without touching
// any state.
package contract

import (
	"fmt"

	"go.uber.org/zap"
)

// Violation is the panic value raised for a broken precondition.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string { return "contract violation: " + v.Msg }

var (
	failFast = true
	log      = zap.NewNop()
)

// Configure sets the violation policy. Called once at boot, before the
// game loop starts.
func Configure(ff bool, l *zap.Logger) {
	failFast = ff
	if l != nil {
		log = l
	}
}

// FailFast reports the active policy.
func FailFast() bool { return failFast }

// Require checks cond. On failure it panics in fail-fast mode, otherwise it
// logs the violation and returns false.
func Require(cond bool, format string, args ...any) bool {
	if cond {
		return true
	}
	msg := fmt.Sprintf(format, args...)
	if failFast {
		panic(&Violation{Msg: msg})
	}
	log.Error("contract violation", zap.String("detail", msg), zap.Stack("stack"))
	return false
}
