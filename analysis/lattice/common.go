package lattice

import (
	"errors"

	"github.com/fatih/color"

	"github.com/tia-lang/tia/utils"
)

var colorize = struct {
	Element func(...interface{}) string
	Const   func(...interface{}) string
}{
	Element: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgCyan).SprintFunc())(is...)
	},
	Const: func(is ...interface{}) string {
		return utils.CanColorize(color.New(color.FgHiWhite).SprintFunc())(is...)
	},
}

var errInternal = errors.New("internal error")
