package main

import "github.com/angelospk/posterbed/cmd/cli/cmd"

func main() {
	cmd.Execute()
}
