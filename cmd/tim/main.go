// Package main provides the CLI entrypoint for tim.
package main

func main() {
	Execute()
}
