package main

import "github.com/OpenTraceLab/OpenTraceRoute/cmd/pcbroute/cmd"

func main() {
	cmd.Execute()
}
