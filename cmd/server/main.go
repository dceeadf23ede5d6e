package main

import "github.com/leviettung200/ByteDefence/cmd/server/cmd"

func main() {
	cmd.Execute()
}
