package main

import "github.com/monitorctl/monitorctl/cmd"

func main() {
	cmd.Execute()
}
