package main

import "github.com/jmcleod/examflow/cmd/examflow/cmd"

func main() {
	cmd.Execute()
}
