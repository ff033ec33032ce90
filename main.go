package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/tia-lang/tia/config"
	"github.com/tia-lang/tia/utils"
	"github.com/tia-lang/tia/utils/dot"
)

var opts = utils.Opts()

func main() {
	utils.ParseArgs()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: tia [flags] program\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg, err := loadConfig(path)
	if err != nil {
		log.Fatalln("tia:", err)
	}
	if cfg.NoColorize && !flagPassed("no-colorize") {
		opts.SetNoColorize(true)
	}
	disabled, err := cfg.Disabled()
	if err != nil {
		log.Fatalln("tia:", err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		log.Fatalln("tia:", err)
	}

	res, err := analyze(string(src), opts.Worklist(), disabled)
	if err != nil {
		fmt.Fprintln(os.Stderr, "tia:", err)
		os.Exit(1)
	}

	res.sink.Render(os.Stdout)
	if opts.DumpStores() {
		res.dumpStores(os.Stdout)
	}
	if opts.Metrics() {
		gatherMetrics(os.Stdout, res)
	}
	if opts.Visualize() {
		if err := visualize(path, cfg, res); err != nil {
			log.Fatalln("tia:", err)
		}
	}

	if res.sink.Failed() {
		os.Exit(1)
	}
}

// loadConfig reads the -config file, or probes for tia.toml next to the
// analyzed program.
func loadConfig(program string) (config.Config, error) {
	if path := opts.Config(); path != "" {
		return config.Load(path, true)
	}
	return config.Load(filepath.Join(filepath.Dir(program), config.ConfigName), false)
}

// visualize writes the equation graph next to the input file, either as
// dot text or rendered through graphviz.
func visualize(path string, cfg config.Config, res *result) error {
	format := opts.Format()
	if !flagPassed("format") && cfg.Format != "" {
		format = cfg.Format
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	var buf bytes.Buffer
	if err := res.graph.WriteDot(&buf, filepath.Base(path)); err != nil {
		return err
	}
	if format == "dot" {
		return os.WriteFile(base+".dot", buf.Bytes(), 0o644)
	}
	img, err := dot.DotToImage(base, format, buf.Bytes())
	if err != nil {
		return err
	}
	utils.VerbosePrint("wrote %s\n", img)
	return nil
}

func flagPassed(name string) bool {
	passed := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}
