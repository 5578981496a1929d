package main

import "github.com/blacktop/go-termgfx/cmd/gfxcat/cmd"

func main() {
	cmd.Execute()
}
