package main

import "testing"

func TestColumnFlagDefaults(t *testing.T) {
	root := newRootCmd()

	plot, _, err := root.Find([]string{"plot"})
	if err != nil {
		t.Fatal(err)
	}
	if err := plot.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if plotColumn != "" {
		t.Errorf("plot without --column should plot every column, got %q", plotColumn)
	}

	analyze, _, err := root.Find([]string{"analyze"})
	if err != nil {
		t.Fatal(err)
	}
	if err := analyze.ParseFlags(nil); err != nil {
		t.Fatal(err)
	}
	if analyzeColumn != "mass" {
		t.Errorf("analyze should default to mass, got %q", analyzeColumn)
	}
}

func TestColumnFlagsIndependent(t *testing.T) {
	root := newRootCmd()

	analyze, _, err := root.Find([]string{"analyze"})
	if err != nil {
		t.Fatal(err)
	}
	if err := analyze.ParseFlags([]string{"--column", "peak_temperature"}); err != nil {
		t.Fatal(err)
	}
	if analyzeColumn != "peak_temperature" {
		t.Errorf("expected analyze column peak_temperature, got %q", analyzeColumn)
	}
	if plotColumn != "" {
		t.Errorf("analyze --column leaked into plot: %q", plotColumn)
	}
}
