// Command codegraph indexes repositories into a local vector store and
// serves spec.md's MCP tools over stdio.
package main

import "github.com/codegraph-dev/codegraph/internal/cli"

func main() {
	cli.Execute()
}
