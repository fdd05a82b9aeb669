package stdlib

import (
	"strconv"
	"strings"
	"time"

	"falcon/interpreter-go/pkg/library"
)

var now = time.Now

var timeLayouts = map[string]string{
	"rfc3339": time.RFC3339,
	"date":    time.DateOnly,
	"time":    time.TimeOnly,
	"kitchen": time.Kitchen,
}

func timeModule() *library.Module {
	return library.NewModule("std.time").
		Define(library.Native{Name: "now", Arity: -1, Impl: func(_ *library.CallContext, args []string) (library.Result, error) {
			layout := time.RFC3339
			if len(args) > 0 {
				name := strings.Join(args, " ")
				if named, ok := timeLayouts[strings.ToLower(name)]; ok {
					layout = named
				} else {
					layout = name
				}
			}
			return library.Text(now().Format(layout)), nil
		}}).
		Define(library.Native{Name: "unix", Arity: 0, Impl: func(_ *library.CallContext, _ []string) (library.Result, error) {
			return library.Text(strconv.FormatInt(now().Unix(), 10)), nil
		}})
}
