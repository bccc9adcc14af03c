package main

import "github.com/spinlog/spinlog/cmd"

func main() {
	cmd.Execute()
}
