package main

import "github.com/ignitionstack/modelreg/cmd"

func main() {
	cmd.Execute()
}
