package main

import "github.com/elcodo/burdy/cmd"

func main() {
	cmd.Execute()
}
