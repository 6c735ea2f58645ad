// Command applayout splits a target's rom between independently linked
// images and prints the flags needed to build each one.
//
// Usage:
//
//	applayout targets  -catalog FILE
//	applayout regions  -catalog FILE -target NAME -layout FILE [-pairs]
//	applayout profiles -catalog FILE -target NAME -layout FILE -toolchain NAME
//	                   [-profile FILE]... [-entry REGION]... [-name APP]
//	                   [-build-dir DIR] [-o FILE]
//	applayout merge    -catalog FILE -target NAME -layout FILE -o FILE REGION=IMAGE...
//	applayout split    -catalog FILE -target NAME -layout FILE IMAGE
package main

import (
	"os"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
