package utils

import (
	"flag"
	"fmt"
	"strings"
)

type options struct {
	format     string
	config     string
	noColorize bool
	verbose    bool
	worklist   bool
	visualize  bool
	metrics    bool
	dumpStores bool
}

var opts options

func init() {
	flag.StringVar(&(opts.format), "format", "dot",
		"Output format for the equation graph visualization (dot, svg, png)")
	flag.StringVar(&(opts.config), "config", "",
		"Path to a TOML configuration file")
	flag.BoolVar(&(opts.noColorize), "no-colorize", false,
		"Disable pretty printer colorization")
	flag.BoolVar(&(opts.verbose), "verbose", false,
		"Print progress information during analysis")
	flag.BoolVar(&(opts.worklist), "worklist", false,
		"Solve with the worklist strategy instead of full chaotic passes")
	flag.BoolVar(&(opts.visualize), "visualize", false,
		"Emit the equation graph in the chosen -format next to the input file")
	flag.BoolVar(&(opts.metrics), "metrics", false,
		"Report analysis metrics after solving")
	flag.BoolVar(&(opts.dumpStores), "dump-stores", false,
		"Dump the final store of every program point")
}

// ParseArgs parses command line flags. Call once from main.
func ParseArgs() {
	flag.Parse()
}

// CanColorize gates a colorizing sprint function on the -no-colorize flag.
func CanColorize(col func(...interface{}) string) func(...interface{}) string {
	if opts.noColorize {
		return func(is ...interface{}) string {
			return fmt.Sprintf(strings.Repeat("%s", len(is)), is...)
		}
	}
	return col
}

type optInterface struct{}

// Opts exposes the option singleton.
func Opts() optInterface {
	return optInterface{}
}

func (optInterface) Format() string {
	return opts.format
}

func (optInterface) Config() string {
	return opts.config
}

func (optInterface) NoColorize() bool {
	return opts.noColorize
}

func (optInterface) SetNoColorize(v bool) {
	opts.noColorize = v
}

func (optInterface) Verbose() bool {
	return opts.verbose
}

func (optInterface) Worklist() bool {
	return opts.worklist
}

func (optInterface) Visualize() bool {
	return opts.visualize
}

func (optInterface) Metrics() bool {
	return opts.metrics
}

func (optInterface) DumpStores() bool {
	return opts.dumpStores
}

func (optInterface) OnVerbose(do func()) {
	if opts.verbose {
		do()
	}
}
