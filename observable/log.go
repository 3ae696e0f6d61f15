package observable

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/golang/glog"
)

// Logging convention in the `observable` package:
// Error:
//     contract violations and unexpected panics, even when recovered for partial operation
// V(2):
//     infrequent lifecycle events - view disposal
// Per-event logging is intentionally absent. Add/Remove/Replace/Move fire on the
// mutation hot path while the source mutex is held, so they should be summarized
// by the consumer as statistics rather than logged individually.

// run `do` and recover a panic into the optional handlers.
// the library itself never wraps event dispatch with this - a panic inside a
// transform or filter callback must propagate to the mutation's caller - but
// callers driving mutations from long lived goroutines can use it as a crash
// barrier.
func HandleError(do func(), handlers ...any) (r any) {
	defer func() {
		if r = recover(); r != nil {
			glog.Errorf("Unexpected error: %s\n", ErrorJson(r, debug.Stack()))
			err, ok := r.(error)
			if !ok {
				err = fmt.Errorf("%s", r)
			}
			for _, handler := range handlers {
				switch v := handler.(type) {
				case func():
					v()
				case func(error):
					v(err)
				}
			}
		}
	}()
	do()
	return
}

func ErrorJson(err any, stack []byte) string {
	stackLines := []string{}
	for _, line := range strings.Split(string(stack), "\n") {
		stackLines = append(stackLines, strings.TrimSpace(line))
	}
	errorJson, _ := json.Marshal(map[string]any{
		"error": fmt.Sprintf("%T=%s", err, err),
		"stack": stackLines,
	})
	return string(errorJson)
}
