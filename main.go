package main

import "github.com/revqlabs/revq/cmd"

func main() {
	cmd.Execute()
}
