// This is free and unencumbered software released into the public domain.
// See the UNLICENSE file for details.

// Package main - cipherbox is a collection of educational ciphers built around
// a three rotor machine with a plugboard and a reflector, plus a small local
// password vault.
package main

import "github.com/bgallie/cipherbox/cmd"

func main() {
	cmd.Execute()
}
