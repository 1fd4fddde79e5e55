// Package main is the distillkit CLI: it manages distillation projects,
// runs the generation pipeline, exports datasets, and serves the MCP tools.
package main

import (
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env file is fine; environment variables still apply.
	_ = godotenv.Load()
	Execute()
}
