package main

import "github.com/vlambert/plantalert/cmd/plantalert/cmd"

func main() {
	cmd.Execute()
}
