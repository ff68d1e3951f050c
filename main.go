package main

import "github.com/go-emv/emvscan/cmd"

func main() {
	cmd.Execute()
}
