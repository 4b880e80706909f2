package main

import "github.com/eslsoft/yorlect/cmd"

func main() {
	cmd.Execute()
}
