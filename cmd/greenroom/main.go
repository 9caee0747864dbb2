package main

import "github.com/onairhq/greenroom/cmd/greenroom/cmd"

func main() {
	cmd.Execute()
}
