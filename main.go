package main

import "github.com/brogergvhs/mangarip/cmd"

func main() {
	cmd.Execute()
}
