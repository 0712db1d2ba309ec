// Copyright 2025 The Madola Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"madola.dev/madola/config"
	"madola.dev/madola/run"
)

// TestAll executes every document under testdata and compares its
// output to the .out file of the same name. A document whose name ends
// in _fail.mda is expected to report at least one error instead.
func TestAll(t *testing.T) {
	dir, err := os.Open("testdata")
	if err != nil {
		t.Fatal(err)
	}
	names, err := dir.Readdirnames(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if !strings.HasSuffix(name, ".mda") {
			continue
		}
		t.Run(strings.TrimSuffix(name, ".mda"), func(t *testing.T) {
			runTestFile(t, filepath.Join("testdata", name))
		})
	}
}

func runTestFile(t *testing.T, path string) {
	shouldFail := strings.HasSuffix(path, "_fail.mda")
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	conf := &config.Config{}
	conf.SetOutput(stdout)
	conf.SetErrOutput(stderr)
	conf.SetBaseDir(t.TempDir())
	conf.SetModulePath([]string{conf.TroveDir()})

	ok := run.File(conf, path)
	if shouldFail {
		if ok || stderr.Len() == 0 {
			t.Fatalf("expected execution failure:\n%s", stdout)
		}
		return
	}
	if !ok || stderr.Len() != 0 {
		t.Fatalf("execution failure:\n%s", stderr)
	}
	want, err := os.ReadFile(strings.TrimSuffix(path, ".mda") + ".out")
	if err != nil {
		t.Fatal(err)
	}
	if stdout.String() != string(want) {
		t.Errorf("got:\n%s\nwant:\n%s", stdout, want)
	}
}
