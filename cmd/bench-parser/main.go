package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// TestEvent mirrors the go test -json stream.
type TestEvent struct {
	Time    time.Time `json:"Time"`
	Action  string    `json:"Action"`
	Package string    `json:"Package"`
	Test    string    `json:"Test,omitempty"`
	Output  string    `json:"Output,omitempty"`
	Elapsed float64   `json:"Elapsed,omitempty"`
}

type BenchmarkResult struct {
	Name     string
	NsPerOp  float64
	MBPerSec float64
	GMACs    float64
	IPC      float64
	LLCPerOp float64
	Status   string
}

// Summarizes `go test -bench . -json` output into one table per stream,
// keeping the engine's throughput and counter metrics side by side.
func main() {
	var jsonFile string
	flag.StringVar(&jsonFile, "file", "", "JSON benchmark stream to parse; default stdin")
	flag.Parse()

	in := os.Stdin
	if jsonFile != "" {
		file, err := os.Open(jsonFile)
		if err != nil {
			log.Fatal(err)
		}
		defer file.Close()
		in = file
	}

	var results []BenchmarkResult
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		var event TestEvent
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}

		if event.Action == "output" && strings.Contains(event.Output, "ns/op") {
			if result := parseBenchmarkLine(event.Output); result != nil {
				results = append(results, *result)
			}
		}

		if event.Action == "fail" && event.Test != "" {
			results = append(results, BenchmarkResult{
				Name:   event.Test,
				Status: "FAIL",
			})
		}
	}
	if err := scanner.Err(); err != nil {
		log.Fatalf("reading stream: %v", err)
	}

	fmt.Println("\nBenchmark Results Summary")
	fmt.Println("=========================")
	fmt.Printf("%-44s %14s %12s %10s %8s %12s %8s\n",
		"Benchmark", "ns/op", "MB/s", "GMAC/s", "ipc", "llc/op", "Status")
	fmt.Println(strings.Repeat("-", 114))

	for _, r := range results {
		status := "PASS"
		if r.Status != "" {
			status = r.Status
		}
		fmt.Printf("%-44s %14s %12s %10s %8s %12s %8s\n",
			r.Name,
			cell(r.NsPerOp, "%.2f"),
			cell(r.MBPerSec, "%.2f"),
			cell(r.GMACs, "%.3f"),
			cell(r.IPC, "%.2f"),
			cell(r.LLCPerOp, "%.0f"),
			status)
	}
}

// cell renders a metric, or a dash when the benchmark did not report it.
func cell(v float64, format string) string {
	if v == 0 {
		return "-"
	}
	return fmt.Sprintf(format, v)
}

// parseBenchmarkLine pulls the metrics out of one benchmark output line,
// e.g.:
//
//	BenchmarkCorrelateTiled/Size_128-16  922  1287204 ns/op  402.11 MB/s  11.531 GMAC/s
func parseBenchmarkLine(line string) *BenchmarkResult {
	fields := strings.Fields(line)
	if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
		return nil
	}

	result := &BenchmarkResult{Name: fields[0]}
	for i, field := range fields {
		if i == 0 {
			continue
		}
		switch field {
		case "ns/op":
			fmt.Sscanf(fields[i-1], "%f", &result.NsPerOp)
		case "MB/s":
			fmt.Sscanf(fields[i-1], "%f", &result.MBPerSec)
		case "GMAC/s":
			fmt.Sscanf(fields[i-1], "%f", &result.GMACs)
		case "ipc":
			fmt.Sscanf(fields[i-1], "%f", &result.IPC)
		case "llc-misses/op":
			fmt.Sscanf(fields[i-1], "%f", &result.LLCPerOp)
		}
	}
	return result
}
