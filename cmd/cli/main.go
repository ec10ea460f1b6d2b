package main

import "manhwahub/cmd/cli/command"

func main() {
	command.Execute()
}
