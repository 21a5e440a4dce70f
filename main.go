package main

import "github.com/adityaraj-09/insien-editor/cmd"

func main() {
	cmd.Execute()
}
