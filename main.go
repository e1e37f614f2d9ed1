package main

import "github.com/pythonkids/pad/cmd"

func main() {
	cmd.Execute()
}
