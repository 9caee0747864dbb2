package main

import "github.com/onairhq/greenroom/cmd/greenroom-probe/cmd"

func main() {
	cmd.Execute()
}
