// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"gopkg.in/urfave/cli.v1"

	"madola.dev/madola/config"
	"madola.dev/madola/eval"
	"madola.dev/madola/exec"
	"madola.dev/madola/mod"
	"madola.dev/madola/run"
)

const historyFile = "history"

func main() {
	app := cli.NewApp()
	app.Name = "madola"
	app.Usage = "run madola notation documents"
	app.Version = config.LanguageVersion
	app.Commands = []cli.Command{
		{
			Name:      "run",
			Usage:     "execute one or more .mda files",
			ArgsUsage: "file.mda...",
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "emit-html",
					Usage: "render the document as HTML on standard output",
				},
				cli.StringFlag{
					Name:  "debug",
					Usage: "comma-separated debug settings",
				},
			},
			Action: runFiles,
		},
		{
			Name:   "repl",
			Usage:  "interactive session",
			Action: repl,
		},
		{
			Name:  "version",
			Usage: "print the language version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(config.LanguageVersion)
				return nil
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "madola: %v\n", err)
		os.Exit(1)
	}
}

func newConfig(ctx *cli.Context) *config.Config {
	conf := &config.Config{}
	conf.SetOutput(os.Stdout)
	conf.SetErrOutput(os.Stderr)
	conf.SetHTML(ctx.Bool("emit-html"))
	for _, d := range strings.Split(ctx.String("debug"), ",") {
		if d != "" {
			conf.SetDebug(d, true)
		}
	}
	return conf
}

func runFiles(ctx *cli.Context) error {
	if ctx.NArg() == 0 {
		return cli.NewExitError("madola run: no input files", 2)
	}
	conf := newConfig(ctx)
	ok := true
	for _, path := range ctx.Args() {
		if !run.File(conf, path) {
			ok = false
		}
	}
	if !ok {
		return cli.NewExitError("", 1)
	}
	return nil
}

// repl runs an interactive session against one persistent context, so
// definitions accumulate across lines.
func repl(ctx *cli.Context) error {
	conf := newConfig(ctx)
	ectx := exec.NewContext(conf)
	ev := eval.New(conf, ectx)
	resolver := mod.NewResolver(conf, ".")
	defer resolver.Close()
	ev.Modules = resolver

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		os.MkdirAll(filepath.Dir(histPath), 0o755)
		if f, err := os.Create(histPath); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("madola %s\n", config.LanguageVersion)
	for i := 1; ; i++ {
		text, err := line.Prompt("> ")
		if err != nil {
			// Ctrl-D or Ctrl-C ends the session.
			fmt.Println()
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			return nil
		}
		line.AppendHistory(text)
		if !strings.HasSuffix(text, ";") && !strings.HasSuffix(text, "}") {
			text += ";"
		}
		run.Source(ev, fmt.Sprintf("<repl-%d>", i), text, true)
	}
}

func historyPath() string {
	dir, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(dir, ".madola", historyFile)
}
