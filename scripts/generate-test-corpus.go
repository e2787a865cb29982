//go:build ignore

// Package main generates a synthetic Swift-project corpus for indexing
// benchmarks, covering the chunk router's Swift, generic tree-sitter (C and
// YAML) and Markdown paths.
// Usage: go run scripts/generate-test-corpus.go -files 1000 -output testdata/bench
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

var (
	numFiles  = flag.Int("files", 1000, "Number of files to generate")
	outputDir = flag.String("output", "testdata/bench", "Output directory")
	seed      = flag.Int64("seed", 42, "Random seed for reproducibility")
)

var swiftTemplate = `import Foundation

/// %s handles %s for the app.
struct %s {
    let id: String
    var name: String
    private var cache: [String: Any] = [:]

    init(id: String, name: String) {
        self.id = id
        self.name = name
    }

    /// Runs the main %s operation.
    func %s(input: String) -> String {
        return "processed: \(input) by \(name)"
    }

    mutating func set%s(_ value: String) {
        cache["%s"] = value
    }
}

extension %s: Equatable, Codable {
    static func == (lhs: %s, rhs: %s) -> Bool {
        return lhs.id == rhs.id
    }
}

final class %sController {
    private let store: %s

    init(store: %s) {
        self.store = store
    }

    func handle%s() {
        _ = store.%s(input: "%s")
    }
}
`

var cTemplate = `#include <stdio.h>
#include <stdlib.h>

struct %s {
    int id;
    char name[64];
};

struct %s *%s_create(int id, const char *name) {
    struct %s *s = malloc(sizeof(struct %s));
    s->id = id;
    return s;
}

int %s_process(struct %s *s, const char *input) {
    if (s == NULL) {
        return -1;
    }
    return 0;
}

void %s_free(struct %s *s) {
    free(s);
}
`

var yamlTemplate = `name: %s
kind: %s
spec:
  replicas: 3
  selector:
    matchLabels:
      app: %s
  template:
    metadata:
      labels:
        app: %s
    spec:
      containers:
        - name: %s
          image: %s:latest
          env:
            - name: MODE
              value: "%s"
          ports:
            - containerPort: 8080
`

var mdTemplate = `# %s

## Overview

%s handles %s for the indexing pipeline.

## Usage

` + "```swift" + `
let handler = %s(id: "1", name: "%s")
let result = handler.%s(input: "value")
` + "```" + `

## Configuration

| Option | Type | Default | Description |
|--------|------|---------|-------------|
| timeout | Int | 30 | Request timeout in seconds |
| retries | Int | 3 | Number of retry attempts |

## Notes

See ` + "`%s.swift`" + ` for the full implementation.
`

var (
	nouns = []string{
		"Handler", "Manager", "Service", "Controller", "Processor",
		"Engine", "Client", "Worker", "Builder", "Parser",
		"Validator", "Formatter", "Converter", "Cache", "Store",
		"Router", "Dispatcher", "Scheduler", "Monitor", "Session",
	}
	domains = []string{
		"authentication", "caching", "logging", "monitoring",
		"messaging", "scheduling", "routing", "parsing", "validation",
		"serialization", "hashing", "indexing", "searching", "batching",
	}
)

func main() {
	flag.Parse()
	rand.Seed(*seed)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	subdirs := []string{"swift", "c", "yaml", "docs"}
	for _, subdir := range subdirs {
		if err := os.MkdirAll(filepath.Join(*outputDir, subdir), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating subdirectory %s: %v\n", subdir, err)
			os.Exit(1)
		}
	}

	fmt.Printf("Generating %d files in %s...\n", *numFiles, *outputDir)

	swiftFiles := *numFiles * 60 / 100 // 60% Swift, the primary target
	cFiles := *numFiles * 15 / 100     // 15% C, exercises the generic tree-sitter chunker
	yamlFiles := *numFiles * 15 / 100  // 15% YAML, same chunker, different grammar
	mdFiles := *numFiles - swiftFiles - cFiles - yamlFiles

	generated := 0

	for i := 0; i < swiftFiles; i++ {
		if err := generateSwiftFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating Swift file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < cFiles; i++ {
		if err := generateCFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating C file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < yamlFiles; i++ {
		if err := generateYAMLFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating YAML file %d: %v\n", i, err)
		}
		generated++
	}

	for i := 0; i < mdFiles; i++ {
		if err := generateMDFile(i); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating MD file %d: %v\n", i, err)
		}
		generated++
	}

	fmt.Printf("Generated %d files successfully.\n", generated)
}

func randomWord(pool []string) string {
	return pool[rand.Intn(len(pool))]
}

func generateSwiftFile(index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)
	verb := "run" + noun

	content := fmt.Sprintf(swiftTemplate,
		noun, domain, noun,
		domain, verb, noun, domain,
		noun, noun, noun,
		noun, noun, noun,
		noun, verb, domain,
	)

	filename := filepath.Join(*outputDir, "swift", fmt.Sprintf("%s_%d.swift", noun, index))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateCFile(index int) error {
	noun := randomWord(nouns)
	lower := fmt.Sprintf("%s_%d", noun, index)

	content := fmt.Sprintf(cTemplate,
		noun, noun, lower, noun, noun,
		lower, noun,
		lower, noun,
	)

	filename := filepath.Join(*outputDir, "c", fmt.Sprintf("%s.c", lower))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateYAMLFile(index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)
	name := fmt.Sprintf("%s-%d", noun, index)

	content := fmt.Sprintf(yamlTemplate,
		name, noun, name, name, name, noun, domain,
	)

	filename := filepath.Join(*outputDir, "yaml", fmt.Sprintf("%s.yaml", name))
	return os.WriteFile(filename, []byte(content), 0644)
}

func generateMDFile(index int) error {
	noun := randomWord(nouns)
	domain := randomWord(domains)
	verb := "run" + noun

	content := fmt.Sprintf(mdTemplate,
		noun, noun, domain, noun, domain, verb, noun,
	)

	filename := filepath.Join(*outputDir, "docs", fmt.Sprintf("%s_%d.md", noun, index))
	return os.WriteFile(filename, []byte(content), 0644)
}
