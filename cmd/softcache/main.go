// Package main provides the softcache command, a benchmark driver for the
// software-managed cache engine.
package main

func main() {
	Execute()
}
