package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gopa-lang/gopa/pkg/gopa"
)

// runTests executes every script under <dir>/cases and compares its
// output against <dir>/expected/<name>.txt. Scripts run with all
// permissions, a fixed seed and a virtual clock, so timer output is
// deterministic.
func runTests(dir string) int {
	if dir == "" {
		dir = "tests"
	}
	cases, err := filepath.Glob(filepath.Join(dir, "cases", "*.gopa"))
	if err != nil || len(cases) == 0 {
		fmt.Fprintf(os.Stderr, "gopa: no test cases under %s\n",
			filepath.Join(dir, "cases"))
		return 1
	}
	sort.Strings(cases)

	failed := 0
	for _, path := range cases {
		name := strings.TrimSuffix(filepath.Base(path), ".gopa")
		if err := runCase(dir, name, path); err != nil {
			fmt.Printf("FAIL %s\n%v\n", name, err)
			failed++
		} else {
			fmt.Printf("ok   %s\n", name)
		}
	}

	fmt.Printf("%d passed, %d failed\n", len(cases)-failed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

func runCase(dir, name, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	want, err := os.ReadFile(filepath.Join(dir, "expected", name+".txt"))
	if err != nil {
		return fmt.Errorf("missing expected output: %w", err)
	}

	var out bytes.Buffer
	rt := gopa.New(
		gopa.WithAllPermissions(),
		gopa.WithOutput(&out),
		gopa.WithVirtualClock(virtualEpoch),
		gopa.WithSeed(1),
	)
	defer rt.Close()

	if err := rt.Run(string(src)); err != nil {
		return fmt.Errorf("script failed: %w", err)
	}
	if got := out.String(); got != string(want) {
		return fmt.Errorf("output mismatch:\n--- want ---\n%s--- got ---\n%s",
			want, got)
	}
	return nil
}
